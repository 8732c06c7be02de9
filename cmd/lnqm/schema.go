package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-lnqm"
)

func newSchemaCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema [FILE]",
		Short: "Print a schema as YAML.",
		Long: `Print the schema of FILE as YAML. Without FILE the schema given with
--schema is printed, or the default LnQM schema if none was given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema *lnqm.Schema
			switch {
			case len(args) == 1:
				ds, err := a.load(args[0])
				if err != nil {
					return err
				}
				schema = ds.Schema()
			case a.schema != nil:
				schema = a.schema
			default:
				schema = lnqm.DefaultSchema()
			}

			data, err := yaml.Marshal(schema)
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the schema to a file")
	return cmd
}
