package main

import (
	"github.com/radphys/dvhrisk/bootstrap"
	"github.com/radphys/dvhrisk/config"
	"github.com/radphys/dvhrisk/dvhio"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
	"github.com/radphys/dvhrisk/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProcessCmd() *cobra.Command {
	var (
		configFile string
		outFile    string
		sumFile    string
		organs     []string
		models     []string
		nsamples   int
	)

	cmd := &cobra.Command{
		Use:   "process <dvh-file>...",
		Short: "Monte-Carlo sample OED values for patient DVH files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger(ctx)

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			opts := cfg.ProcessOptions()
			if len(organs) > 0 {
				opts.Organs = append(opts.Organs, organs...)
			}
			if len(models) > 0 {
				opts.Models = append(opts.Models, models...)
			}
			if nsamples > 0 {
				opts.NSamples = nsamples
			}

			sets := make([]*model.DVHSet, 0, len(args))
			for _, path := range args {
				set, err := dvhio.LoadDVHSet(path)
				if err != nil {
					return err
				}
				sets = append(sets, set)
			}

			results, err := oed.ProcessPatients(ctx, sets, opts)
			if err != nil {
				return err
			}

			// Accumulate onto a previous run when the output exists.
			previous, err := dvhio.LoadResults(outFile)
			if err != nil {
				return err
			}
			previous.Merge(results)
			if err := dvhio.SaveResults(outFile, previous); err != nil {
				return err
			}
			logger.Info("results written", zap.String("file", outFile),
				zap.Int("keys", len(previous)))

			if sumFile == "" {
				return nil
			}
			stats, err := oed.Aggregate(ctx, previous, cfg.BootstrapMaxSamples,
				bootstrap.Mode(cfg.BootstrapSampleMode), 0.95, cfg.Seed, cfg.Workers)
			if err != nil {
				return err
			}
			return dvhio.SaveSummaries(sumFile, stats)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&outFile, "outfile", "O", "output.json", "output results file")
	cmd.Flags().StringVar(&sumFile, "summary", "", "optional population summary output file")
	cmd.Flags().StringArrayVarP(&organs, "organ", "o", nil, "organ to process (repeatable)")
	cmd.Flags().StringArrayVarP(&models, "model", "m", nil, "response model to calculate (repeatable)")
	cmd.Flags().IntVarP(&nsamples, "nsamples", "N", 0, "Monte-Carlo samples per organ/model")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
