package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm"
	"github.com/robert-malhotra/go-lnqm/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE [FIELD...]",
		Short: "Summarize numeric fields of a dataset.",
		Long: `Print count, range, mean and approximate quantiles of each numeric field.
Without FIELD arguments every numeric field is summarized.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load(args[0])
			if err != nil {
				return err
			}

			fields := args[1:]
			if len(fields) == 0 {
				for _, f := range ds.Schema().Fields() {
					if !f.IsText() {
						fields = append(fields, f.Name)
					}
				}
			}

			writer := tabwriter.NewWriter(a.out, 20, 1, 3, ' ', 0)
			writeRow(writer, "FIELD", "COUNT", "SAMPLES", "NAN", "MIN", "MAX", "MEAN", "P50", "P90", "P99")
			for _, name := range fields {
				s, err := summarize(ds.Store(), name, a.cfg.Stats.Accuracy)
				if err != nil {
					return err
				}
				writeRow(writer, s.Field, humanize.Comma(s.Count), s.Samples, s.NaN,
					formatFloat(s.Min), formatFloat(s.Max), formatFloat(s.Mean),
					formatFloat(s.P50), formatFloat(s.P90), formatFloat(s.P99))
			}
			return writer.Flush()
		},
	}
}

// summarize feeds every sample's run of a numeric field into an accumulator.
func summarize(s *lnqm.Store, field string, accuracy float64) (stats.Summary, error) {
	f, ok := s.Schema().Field(field)
	if !ok {
		return stats.Summary{}, fmt.Errorf("%w: no field %q", lnqm.ErrOutOfRange, field)
	}
	if f.IsText() {
		return stats.Summary{}, fmt.Errorf("%w: field %q is text", lnqm.ErrUnsupportedElementType, field)
	}

	acc, err := stats.New(field, accuracy)
	if err != nil {
		return stats.Summary{}, err
	}
	col, _ := s.Column(field)
	for i := range s.Len() {
		start, end, err := s.Boundaries(field, i)
		if err != nil {
			return stats.Summary{}, err
		}
		if err := acc.AddSample(col.Buffer().Slice(start, end).AsFloat64()); err != nil {
			return stats.Summary{}, err
		}
	}
	return acc.Summary(), nil
}

func formatFloat(v float64) string {
	return humanize.FtoaWithDigits(v, 6)
}
