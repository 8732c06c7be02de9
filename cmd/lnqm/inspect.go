package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm/container"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the container tree of a file.",
		Long: `Print the container tree of a file: every group and blob with its
type, shape, filters, size and attributes. The file does not need to be a
valid dataset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := container.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a.printf("%s (%s, %s, %d-byte offsets)\n", f.Path(), f.Format(), humanize.Bytes(f.Size()), f.OffsetSize())
			return container.Walk(f.Root(), func(path string, obj any, err error) error {
				depth := strings.Count(strings.TrimSuffix(path, "/"), "/")
				indent := strings.Repeat("  ", depth)
				if err != nil {
					a.printf("%s%s: ERROR %v\n", indent, path, err)
					return nil
				}
				switch o := obj.(type) {
				case *container.Group:
					members, _ := o.Members()
					a.printf("%s%s/ (%d members)%s\n", indent, strings.TrimSuffix(o.Name(), "/"), len(members), formatAttrs(o.Attrs(), o.Attr))
				case *container.Blob:
					a.printf("%s%s %s %v%s%s%s\n", indent, o.Name(), o.TypeName(), o.Shape(),
						formatFilters(o), formatSize(o), formatAttrs(o.Attrs(), o.Attr))
				}
				return nil
			})
		},
	}
}

func formatFilters(b *container.Blob) string {
	filters := b.Filters()
	if len(filters) == 0 {
		return ""
	}
	return " [" + strings.Join(filters, ",") + "]"
}

func formatSize(b *container.Blob) string {
	if b.StoredSize() == b.RawSize() {
		return " " + humanize.Bytes(b.StoredSize())
	}
	return fmt.Sprintf(" %s (raw %s)", humanize.Bytes(b.StoredSize()), humanize.Bytes(b.RawSize()))
}

func formatAttrs(names []string, get func(string) *container.Attribute) string {
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, err := get(name).Value()
		if err != nil {
			parts = append(parts, name+"=?")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", name, v))
	}
	return " {" + strings.Join(parts, " ") + "}"
}
