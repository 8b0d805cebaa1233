package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/events"
	"github.com/pearlybrook/colordetect/pkg/types"
	"github.com/pearlybrook/colordetect/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version",
		GroupID: gBasic,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Show the last classified frame",
		Long:    `Show the color detected in the last sensing cycle with the readings behind it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := apiClient.GetFrame()
			if err != nil {
				return fmt.Errorf("failed to get frame: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(f)
			}

			printFrame(cmd.OutOrStdout(), f)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the frame as JSON")

	return cmd
}

func NewWatchCommand() *cobra.Command {
	changesOnly := false

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: gBasic,
		Short:   "Stream frames as they are classified",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			evs, err := apiClient.Events(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			last := classifier.Label(-1)
			for ev := range evs {
				switch ev.Name {
				case events.FrameClassified:
					f, err := events.DecodeAs[types.Frame](ev)
					if err != nil {
						logrus.WithError(err).Warn("failed to decode frame")
						continue
					}
					if changesOnly && f.Label() == last {
						continue
					}
					last = f.Label()
					cmd.Println(frameLine(&f))
				case events.CalibrationChanged:
					c, err := events.DecodeAs[events.CalibrationChangedEvent](ev)
					if err == nil {
						cmd.Printf("calibration of %s changed to [%d, %d]\n", c.Channel, c.Low, c.High)
					}
				case events.ExtremaReset:
					cmd.Println("extrema reset")
				}
			}

			if ctx.Err() == nil {
				return fmt.Errorf("event stream closed by daemon")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&changesOnly, "changes-only", false, "Only print frames whose label differs from the previous one")

	return cmd
}

// frameLine is the one line summary used by watch.
func frameLine(f *types.Frame) string {
	r, g, b := f.RGB()
	return fmt.Sprintf("#%-6d %s  %-8s R:%-4d G:%-4d B:%-4d %s",
		f.Seq, f.Time.Local().Format(time.TimeOnly), labelText(f.Label()), r, g, b, f.Swatch)
}

func printFrame(w io.Writer, f *types.Frame) {
	fmt.Fprintln(w, bold("Last frame:"))
	fmt.Fprintf(w, "  Sequence: %d at %s\n", f.Seq, f.Time.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  Color: %s\n", labelText(f.Label()))

	res := f.Classification
	switch res.Stage {
	case classifier.StageOutlier:
		fmt.Fprintf(w, "    Decided by the outlier test (mean %.0f, stddev %.2f)\n", res.Mean, res.StdDev)
	case classifier.StageAchromatic:
		fmt.Fprintln(w, "    Decided by the black/white test")
	case classifier.StageFault:
		fmt.Fprintln(w, "    At least one channel could not be read")
	}
	fmt.Fprintf(w, "  Swatch: %s\n", f.Swatch)

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Channels:"))
	for _, ch := range channel.All {
		reading := f.Channels[ch]
		switch {
		case !reading.Read:
			fmt.Fprintf(w, "  %-6s %s\n", ch, color.New(color.Faint).Sprint("not read"))
		case reading.Fault != "":
			fmt.Fprintf(w, "  %-6s %s\n", ch, color.New(color.FgRed).Sprintf("failed: %s", reading.Fault))
		default:
			fmt.Fprintf(w, "  %-6s raw %-6d normalized %d\n", ch, reading.Raw, reading.Normalized)
		}
	}
}
