package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/extrema"
	"github.com/pearlybrook/colordetect/pkg/types"
)

func NewExtremaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extrema",
		GroupID: gCalibration,
		Short:   "Show the smallest and largest raw reading seen per channel",
		Long: `Show the smallest and largest raw pulse width the daemon has seen on each channel.

Sweep the sensor over the darkest and brightest targets you expect, then use
"colordetect calibration suggest" to turn the extrema into calibration ranges.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := apiClient.GetExtrema()
			if err != nil {
				return fmt.Errorf("failed to get extrema: %w", err)
			}
			printExtrema(cmd.OutOrStdout(), e)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget all observed extrema",
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.ResetExtrema()
			if err != nil {
				return fmt.Errorf("failed to reset extrema: %w", err)
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	})

	return cmd
}

func printExtrema(w io.Writer, e types.Extrema) {
	fmt.Fprintln(w, bold("Extrema:"))
	for _, ch := range channel.All {
		rec, ok := e[ch]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-6s min %-6s max %-6s usable %s\n", ch,
			boundText(rec.Min, rec.HasMin()), boundText(rec.Max, rec.HasMax()),
			bool2Text(extremaObserved(rec)))
	}
}

func boundText(v int, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprint(v)
}

func NewCalibrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibration",
		Aliases: []string{"cal"},
		GroupID: gCalibration,
		Short:   "Show or change per-channel calibration ranges",
		Long: `Show or change per-channel calibration ranges.

A range maps raw pulse widths onto 0-255: the low bound (brightest reading)
becomes 255 and the high bound (darkest reading) becomes 0.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalibrationShow(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show calibration ranges",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCalibrationShow(cmd)
			},
		},
		&cobra.Command{
			Use:     "set <channel> <low> <high>",
			Short:   "Set the calibration range of one channel",
			Example: "  colordetect calibration set red 1 111",
			Args:    cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				ch, r, err := parseRangeArgs(args)
				if err != nil {
					return err
				}
				ret, err := apiClient.SetCalibration(ch, r)
				if err != nil {
					return fmt.Errorf("failed to set calibration: %w", err)
				}
				logrus.Infof("daemon responded: %s", ret)
				return nil
			},
		},
		newCalibrationSuggestCommand(),
	)

	return cmd
}

func newCalibrationSuggestCommand() *cobra.Command {
	apply := false

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest calibration ranges from observed extrema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			suggested, err := apiClient.SuggestCalibration()
			if err != nil {
				return fmt.Errorf("failed to get suggestions: %w", err)
			}
			if len(suggested) == 0 {
				cmd.Println("No channel has both a minimum and a maximum yet. Move the sensor over dark and bright targets and try again.")
				return nil
			}

			printCalibration(cmd.OutOrStdout(), "Suggested calibration:", suggested)

			if !apply {
				return nil
			}
			for _, ch := range channel.All {
				r, ok := suggested[ch]
				if !ok {
					continue
				}
				if _, err := apiClient.SetCalibration(ch, r); err != nil {
					return fmt.Errorf("failed to apply %s calibration: %w", ch, err)
				}
				logrus.WithField("channel", ch).Infof("applied calibration %s", r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Store the suggested ranges in the daemon config")

	return cmd
}

func runCalibrationShow(cmd *cobra.Command) error {
	cal, err := apiClient.GetCalibration()
	if err != nil {
		return fmt.Errorf("failed to get calibration: %w", err)
	}
	printCalibration(cmd.OutOrStdout(), "Calibration:", cal)
	return nil
}

func printCalibration(w io.Writer, title string, cal types.Calibration) {
	fmt.Fprintln(w, bold("%s", title))
	for _, ch := range channel.All {
		r, ok := cal[ch]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-6s low %-6d high %d\n", ch, r.Low, r.High)
	}
}

func parseRangeArgs(args []string) (channel.Channel, calibration.Range, error) {
	ch, err := channel.Parse(args[0])
	if err != nil {
		return 0, calibration.Range{}, err
	}
	low, err := parseIntArg(args[1], "low")
	if err != nil {
		return 0, calibration.Range{}, err
	}
	high, err := parseIntArg(args[2], "high")
	if err != nil {
		return 0, calibration.Range{}, err
	}
	r := calibration.Range{Low: low, High: high}
	if err := r.Validate(); err != nil {
		return 0, calibration.Range{}, err
	}
	return ch, r, nil
}

// extremaObserved reports whether rec can seed a calibration range.
func extremaObserved(rec extrema.Record) bool {
	_, ok := calibration.Suggest(rec)
	return ok
}
