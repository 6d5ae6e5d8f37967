package sampler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParallelMap runs fn for every index in [0, n) on a bounded worker
// pool. Trials are independent and side-effect-free by construction,
// which makes this the natural execution shape for Monte-Carlo work.
func ParallelMap(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		grp.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					utils.GetLogger(ctx).Error("trial recover panic error!", zap.Any("err", r),
						zap.Int("trial", i), zap.String("panic info", utils.GetPanicInfo()))
					err = fmt.Errorf("trial %d panicked: %v", i, r)
				}
			}()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(i)
		})
	}
	return grp.Wait()
}

// SampleFuncParallel is SampleFunc with trials spread over a worker
// pool. Every trial owns a driver seeded from the base seed and the
// trial index, so results are reproducible and independent of the
// worker schedule.
func SampleFuncParallel(ctx context.Context, seed uint64, workers int, f Func,
	n int, specs ...*model.SampleSpec) ([]Value, [][]Value, error) {

	results := make([]Value, n)
	samples := make([][]Value, n)
	err := ParallelMap(ctx, n, workers, func(i int) error {
		d := New(seed + uint64(i))
		result, args, err := d.runTrial(f, specs)
		if err != nil {
			return err
		}
		results[i] = result
		samples[i] = args
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return results, samples, nil
}
