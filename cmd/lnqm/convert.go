package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Rewrite a dataset with different storage options.",
		Long: `Load a dataset and write it again, applying the output options of the
config file overridden by flags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			out := &a.cfg.Output
			if flags.Changed("compression") {
				out.Compression, _ = flags.GetString("compression")
			}
			if flags.Changed("level") {
				out.Level, _ = flags.GetInt("level")
			}
			if flags.Changed("shuffle") {
				out.Shuffle, _ = flags.GetBool("shuffle")
			}
			if flags.Changed("checksum") {
				out.Checksum, _ = flags.GetBool("checksum")
			}
			if flags.Changed("allow-negative") {
				out.AllowNegative, _ = flags.GetBool("allow-negative")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ds, err := a.load(args[0])
			if err != nil {
				return err
			}
			opts, err := a.saveOptions()
			if err != nil {
				return err
			}
			if err := ds.SaveContext(cmd.Context(), args[1], opts...); err != nil {
				return err
			}

			in, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			res, err := os.Stat(args[1])
			if err != nil {
				return err
			}
			a.printf("%s: %d samples, %s -> %s\n", args[1], ds.Len(),
				humanize.Bytes(uint64(in.Size())), humanize.Bytes(uint64(res.Size())))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("compression", "none", "compression: none, deflate, lz4, zstd")
	flags.Int("level", 0, "compression level")
	flags.Bool("shuffle", false, "shuffle bytes before compression")
	flags.Bool("checksum", false, "store a checksum with each blob")
	flags.Bool("allow-negative", false, "accept negative integer values")
	return cmd
}
