package main

import (
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Print sample and field counts of datasets.",
		Long:  "Load each dataset concurrently and print its sample count, field count and file size.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := lnqm.LoadAll(cmd.Context(), args, a.loadOptions()...)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(a.out, 20, 1, 3, ' ', 0)
			writeRow(writer, "FILE", "SAMPLES", "FIELDS", "SIZE")
			for i, ds := range datasets {
				size := "-"
				if st, err := os.Stat(args[i]); err == nil {
					size = humanize.Bytes(uint64(st.Size()))
				}
				writeRow(writer, args[i], humanize.Comma(int64(ds.Len())), len(ds.Fields()), size)
			}
			return writer.Flush()
		},
	}
}
