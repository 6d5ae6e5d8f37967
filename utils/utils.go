package utils

import "math"

// Linspace returns num evenly spaced values over [start, stop],
// endpoints included.
func Linspace(start, stop float64, num int) []float64 {
	if num < 2 {
		return []float64{start}
	}
	step := (stop - start) / float64(num-1)
	grid := make([]float64, num)
	for i := 0; i < num; i++ {
		grid[i] = start + float64(i)*step
	}
	return grid
}

// FormatFloat rounds f to the given number of decimal places. NaN and
// infinities pass through unchanged.
func FormatFloat(f float64, round int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	factor := math.Pow(10, float64(round))
	return math.Round(f*factor) / factor
}
