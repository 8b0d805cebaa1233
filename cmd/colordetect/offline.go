package main

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/config"
	"github.com/pearlybrook/colordetect/pkg/types"
)

// loadLocalConfig reads the config file for the offline commands, falling
// back to defaults when it cannot be read.
func loadLocalConfig() config.Config {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.WithError(err).Warn("failed to load config, using defaults")
		return config.NewFileFromConfig(nil, configPath)
	}
	return conf
}

func NewClassifyCommand() *cobra.Command {
	var deviation, threshold int

	cmd := &cobra.Command{
		Use:     "classify <r> <g> <b>",
		GroupID: gOffline,
		Short:   "Classify normalized red, green and blue values",
		Long: `Classify normalized red, green and blue values without the daemon.

Parameters come from the config file unless overridden by flags.`,
		Example: "  colordetect classify 211 73 80",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [3]int
			for i, name := range []string{"red", "green", "blue"} {
				n, err := parseIntArg(args[i], name)
				if err != nil {
					return err
				}
				v[i] = n
			}

			params := loadLocalConfig().ClassifierParams()
			if cmd.Flags().Changed("deviation") {
				params.Deviation = deviation
			}
			if cmd.Flags().Changed("threshold") {
				params.Threshold = threshold
			}
			if err := params.Validate(); err != nil {
				return err
			}

			res := classifier.New(params).Explain(v[0], v[1], v[2])
			cmd.Printf("%s (%s)\n", labelText(res.Label), types.Swatch(v[0], v[1], v[2]))
			if res.Stage == classifier.StageOutlier {
				cmd.Printf("  mean %.0f, stddev %.2f, z-scores %s %s %s\n", res.Mean, res.StdDev,
					score(res.Scores[0]), score(res.Scores[1]), score(res.Scores[2]))
			} else {
				cmd.Printf("  sum %d, threshold %d\n", v[0]+v[1]+v[2], params.Threshold)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&deviation, "deviation", classifier.DefaultDeviation, "Black/white deviation")
	f.IntVar(&threshold, "threshold", classifier.DefaultThreshold, "Black/white sum threshold")

	return cmd
}

func score(z float64) string {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", z)
}

func NewNormalizeCommand() *cobra.Command {
	var low, high int

	cmd := &cobra.Command{
		Use:     "normalize <channel> <raw>",
		GroupID: gOffline,
		Short:   "Map a raw pulse width onto 0-255 with a channel's calibration",
		Example: "  colordetect normalize red 20\n  colordetect normalize green 60 --low 2 --high 125",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := channel.Parse(args[0])
			if err != nil {
				return err
			}
			raw, err := parseIntArg(args[1], "raw")
			if err != nil {
				return err
			}

			r := loadLocalConfig().Calibration()[ch]
			if cmd.Flags().Changed("low") {
				r.Low = low
			}
			if cmd.Flags().Changed("high") {
				r.High = high
			}
			if err := r.Validate(); err != nil {
				logrus.Warn(err)
			}

			cmd.Printf("%s %d -> %d (range %s)\n", ch, raw, calibration.Normalize(raw, r), r)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&low, "low", 0, "Override the calibration low bound")
	f.IntVar(&high, "high", 0, "Override the calibration high bound")

	return cmd
}
