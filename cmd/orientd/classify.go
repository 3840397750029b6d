package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"orientd/internal/classify"
	"orientd/internal/orientation"
	"orientd/internal/replay"
	"orientd/internal/sensor"
)

type change struct {
	Segment     int
	At          time.Duration
	Orientation orientation.Orientation
}

type logSummary struct {
	Segments    int
	Samples     int
	Ignored     int
	MaxDuration time.Duration
	KindCounts  map[sensor.Kind]int
	Changes     []change
}

// classifyLog runs a fresh classifier over each recorded segment and collects
// the change events it would have delivered.
func classifyLog(records []replay.Record, mode classify.Mode, p orientation.Platform) logSummary {
	s := logSummary{KindCounts: map[sensor.Kind]int{}}
	if len(records) == 0 {
		return s
	}

	var origin time.Duration
	var clf *classify.Classifier
	for _, r := range records {
		if r.Start || clf == nil {
			s.Segments++
			origin = r.At
			clf = classify.New(mode, p)
			if r.Start {
				continue
			}
		}

		s.Samples++
		s.KindCounts[r.Sample.Kind]++
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}
		if !accepts(mode, r.Sample.Kind) {
			s.Ignored++
			continue
		}
		if o, changed := clf.Apply(r.Sample); changed {
			s.Changes = append(s.Changes, change{Segment: s.Segments, At: at, Orientation: o})
		}
	}
	return s
}

func accepts(mode classify.Mode, k sensor.Kind) bool {
	return (mode == classify.ModeAngle) == (k == sensor.KindAngle)
}

func printLogSummary(w io.Writer, path string, s logSummary) {
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "samples: %d\n", s.Samples)
	fmt.Fprintf(w, "ignored_samples: %d\n", s.Ignored)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	kinds := make([]int, 0, len(s.KindCounts))
	for k := range s.KindCounts {
		kinds = append(kinds, int(k))
	}
	sort.Ints(kinds)
	fmt.Fprintf(w, "kind_counts:\n")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", sensor.Kind(k), s.KindCounts[sensor.Kind(k)])
	}
	fmt.Fprintf(w, "changes:\n")
	for _, c := range s.Changes {
		fmt.Fprintf(w, "  [%d] %s %s\n", c.Segment, c.At, c.Orientation)
	}
}

func newClassifyCommand() *cobra.Command {
	var (
		replayPath string
		platform   string
		mode       string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run the classifier over a recorded sample log",
		Example: `  orientd classify --replay ./logs/desk.log
  orientd classify --replay ./logs/phone.log --platform apple`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(replayPath)
			if path == "" {
				return fmt.Errorf("--replay is required")
			}
			p, err := orientation.ParsePlatform(platform)
			if err != nil {
				return err
			}
			m := classify.DefaultMode(p)
			if mode != "" {
				if m, err = classify.ParseMode(mode); err != nil {
					return err
				}
			}
			recs, err := replay.ReadFile(path)
			if err != nil {
				return err
			}
			printLogSummary(cmd.OutOrStdout(), path, classifyLog(recs, m, p))
			return nil
		},
	}
	cmd.Flags().StringVar(&replayPath, "replay", "", "sample log to classify (required)")
	cmd.Flags().StringVar(&platform, "platform", "android", "platform convention (android|apple)")
	cmd.Flags().StringVar(&mode, "classifier", "", "angle|vector (default depends on platform)")
	return cmd
}
