package main

import (
	"github.com/radphys/dvhrisk/dvhio"
	"github.com/radphys/dvhrisk/interpolate"
	"github.com/radphys/dvhrisk/model"
	"github.com/radphys/dvhrisk/oed"
	"github.com/radphys/dvhrisk/response"
	"github.com/radphys/dvhrisk/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newApplyCmd() *cobra.Command {
	var (
		outFile      string
		modelName    string
		modelArgs    []float64
		organs       []string
		doseBins     []float64
		volumeBins   int
		interpMethod string
	)

	cmd := &cobra.Command{
		Use:   "apply <dvh-file>",
		Short: "Apply a dose-response model to DVH structures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger(ctx)

			m, err := response.New(modelName, modelArgs...)
			if err != nil {
				return err
			}

			set, err := dvhio.LoadDVHSet(args[0])
			if err != nil {
				return err
			}
			selected := organs
			if len(selected) == 0 {
				for name := range set.Organs {
					selected = append(selected, name)
				}
			}

			if len(doseBins) == 0 {
				doseBins = utils.Linspace(0, 100, 101)
			}
			vbins := utils.Linspace(0, 1, volumeBins)

			out := &model.DVHSet{Patient: set.Patient, Organs: map[string]*model.DVH{}}
			for _, name := range selected {
				dvh, ok := set.Organs[name]
				if !ok {
					logger.Warn("organ not found, skipping", zap.String("organ", name))
					continue
				}
				transformed, err := oed.ApplyResponse(dvh, vbins, doseBins,
					interpolate.Method(interpMethod), m)
				if err != nil {
					return err
				}
				out.Organs[name] = transformed
			}
			return dvhio.SaveDVHSet(outFile, out)
		},
	}

	cmd.Flags().StringVarP(&outFile, "outfile", "O", "response.json", "output DVH file")
	cmd.Flags().StringVarP(&modelName, "model", "m", "LinExp", "response model name")
	cmd.Flags().Float64SliceVarP(&modelArgs, "arg", "a", nil, "response model parameter (repeatable, in order)")
	cmd.Flags().StringArrayVarP(&organs, "organ", "o", nil, "organ to process (repeatable)")
	cmd.Flags().Float64SliceVarP(&doseBins, "dose-bins", "D", nil, "dose binning points")
	cmd.Flags().IntVarP(&volumeBins, "volume-bins", "V", 1001, "number of volume-ratio bins")
	cmd.Flags().StringVarP(&interpMethod, "interpolation", "I", "pchip", "interpolation method")
	return cmd
}
