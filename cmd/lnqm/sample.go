package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm"
)

func newSampleCmd(a *app) *cobra.Command {
	var uid string
	cmd := &cobra.Command{
		Use:   "sample FILE [INDEX]",
		Short: "Print one sample of a dataset.",
		Long: `Print every field of one sample, in schema order. The sample is chosen
by INDEX or by --uid.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (uid != "") {
				return fmt.Errorf("give exactly one of INDEX or --uid")
			}
			ds, err := a.load(args[0])
			if err != nil {
				return err
			}

			var i int
			if uid != "" {
				var ok bool
				if i, ok = ds.IndexOf(uid); !ok {
					return fmt.Errorf("%w: no sample with uid %q", lnqm.ErrOutOfRange, uid)
				}
			} else if i, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}

			s, err := ds.Sample(i)
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(a.out, 20, 1, 3, ' ', 0)
			writeRow(writer, "FIELD", "LEN", "VALUE")
			for _, f := range ds.Schema().Fields() {
				v := s[f.Name]
				writeRow(writer, f.Name, v.Len(), v)
			}
			return writer.Flush()
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "select the sample by its uid")
	return cmd
}
