package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm"
)

func newSelectCmd(a *app) *cobra.Command {
	var (
		index string
		uids  []string
	)
	cmd := &cobra.Command{
		Use:   "select IN OUT",
		Short: "Write a subset of samples to a new dataset.",
		Long: `Write the samples chosen by --index and --uid to a new dataset, in
ascending index order. --index takes a comma-separated list of indices and
half-open ranges, e.g. 0,3,10-20.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if index == "" && len(uids) == 0 {
				return fmt.Errorf("give --index or --uid")
			}
			ds, err := a.load(args[0])
			if err != nil {
				return err
			}

			set, err := parseIndexSpec(index)
			if err != nil {
				return err
			}
			for _, uid := range uids {
				i, ok := ds.IndexOf(uid)
				if !ok {
					return fmt.Errorf("%w: no sample with uid %q", lnqm.ErrOutOfRange, uid)
				}
				set.Add(uint32(i))
			}

			sub, err := ds.Select(set)
			if err != nil {
				return err
			}
			opts, err := a.saveOptions()
			if err != nil {
				return err
			}
			if err := sub.SaveContext(cmd.Context(), args[1], opts...); err != nil {
				return err
			}
			a.printf("wrote %d of %d samples to %s\n", sub.Len(), ds.Len(), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "sample indices, e.g. 0,3,10-20")
	cmd.Flags().StringSliceVar(&uids, "uid", nil, "sample uids")
	return cmd
}

// parseIndexSpec parses a comma-separated list of indices and half-open
// ranges "a-b" into a bitmap.
func parseIndexSpec(spec string) (*roaring.Bitmap, error) {
	set := roaring.New()
	if strings.TrimSpace(spec) == "" {
		return set, nil
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", part, err)
		}
		if !isRange {
			set.Add(uint32(start))
			continue
		}
		end, err := strconv.ParseUint(hi, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", part, err)
		}
		if end < start {
			return nil, fmt.Errorf("invalid range %q: end before start", part)
		}
		set.AddRange(start, end)
	}
	return set, nil
}
