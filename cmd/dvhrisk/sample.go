package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/radphys/dvhrisk/config"
	"github.com/radphys/dvhrisk/dvhio"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
	"github.com/radphys/dvhrisk/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSampleCmd() *cobra.Command {
	var (
		configFile string
		outFile    string
		organ      string
		nsamples   int
		bins       int
	)

	cmd := &cobra.Command{
		Use:   "sample <dvh-file>...",
		Short: "Sample mean DVHs across patients with bootstrap resampling",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger(ctx)

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			var dvhs []*model.DVH
			for _, path := range args {
				set, err := dvhio.LoadDVHSet(path)
				if err != nil {
					return err
				}
				dvh, ok := set.Organ(organ, cfg.OrganNameMap)
				if !ok {
					logger.Warn("organ not found, skipping file",
						zap.String("patient", set.Patient), zap.String("organ", organ))
					continue
				}
				dvhs = append(dvhs, dvh)
			}
			if len(dvhs) == 0 {
				return fmt.Errorf("organ %q not present in any input file", organ)
			}

			volumeBins := utils.Linspace(0, 1, bins)
			samples, err := oed.SampleDVH(ctx, dvhs, nsamples, volumeBins, cfg.SampleDVHOptions())
			if err != nil {
				return err
			}

			rows, _ := samples.Dims()
			doses := make([][]float64, rows)
			for i := 0; i < rows; i++ {
				doses[i] = append([]float64(nil), samples.RawRowView(i)...)
			}
			payload := struct {
				Organ      string      `json:"organ"`
				VolumeBins []float64   `json:"volume_bins"`
				Doses      [][]float64 `json:"doses"`
			}{Organ: organ, VolumeBins: volumeBins, Doses: doses}

			raw, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(outFile, raw, 0o644)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&outFile, "outfile", "O", "samples.json", "output file")
	cmd.Flags().StringVarP(&organ, "organ", "o", "", "organ to sample")
	cmd.Flags().IntVarP(&nsamples, "nsamples", "N", 10, "number of mean-DVH samples")
	cmd.Flags().IntVarP(&bins, "bins", "B", 11, "number of volume-fraction bins")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("organ")
	return cmd
}
