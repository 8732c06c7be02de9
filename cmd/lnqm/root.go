package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-lnqm"
	"github.com/robert-malhotra/go-lnqm/container"
	"github.com/robert-malhotra/go-lnqm/internal/config"
)

// app holds the state shared by all commands.
type app struct {
	configPath string
	schemaPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	schema *lnqm.Schema
	logger *lnqm.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lnqm",
		Short: "Inspect and rewrite LnQM dataset files.",
		Long: `Inspect and rewrite LnQM dataset files.

A dataset file holds a /data group and a /slices group with one blob per
field. Commands that read datasets infer the fields from each file unless a
schema is given with --schema or in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path of a YAML config file")
	flags.StringVar(&a.schemaPath, "schema", "", "path of a YAML schema file")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newInspectCmd(a),
		newInfoCmd(a),
		newSampleCmd(a),
		newStatsCmd(a),
		newSelectCmd(a),
		newConvertCmd(a),
		newSchemaCmd(a),
	)
	return root
}

// setup loads the config file and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if a.schemaPath != "" {
		cfg.Schema = a.schemaPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Schema != "" {
		schema, err := lnqm.LoadSchema(cfg.Schema)
		if err != nil {
			return err
		}
		a.schema = schema
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	a.out = cmd.OutOrStdout()
	return nil
}

func newLogger(c config.LogConfig, w io.Writer) *lnqm.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	if strings.ToLower(c.Format) == "json" {
		return lnqm.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return lnqm.NewLogger(slog.NewTextHandler(w, opts))
}

// loadOptions returns the options for reading datasets.
func (a *app) loadOptions() []lnqm.Option {
	opts := []lnqm.Option{lnqm.WithLogger(a.logger)}
	if a.schema != nil {
		opts = append(opts, lnqm.WithSchema(a.schema))
	}
	return opts
}

// saveOptions returns the options for writing datasets.
func (a *app) saveOptions() ([]lnqm.Option, error) {
	out := a.cfg.Output
	c, err := container.ParseCompression(out.Compression)
	if err != nil {
		return nil, err
	}

	opts := []lnqm.Option{lnqm.WithLogger(a.logger)}
	if c != container.CompressionNone {
		opts = append(opts, lnqm.WithCompression(c, out.Level))
	}
	if out.Shuffle {
		opts = append(opts, lnqm.WithShuffle())
	}
	if out.Checksum {
		opts = append(opts, lnqm.WithChecksum())
	}
	if out.AllowNegative {
		opts = append(opts, lnqm.WithAllowNegative())
	}
	return opts, nil
}

func (a *app) load(path string) (*lnqm.Dataset, error) {
	return lnqm.Load(path, a.loadOptions()...)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// writeRow writes one tab-terminated row for a tabwriter.
func writeRow(w io.Writer, cols ...any) {
	for _, c := range cols {
		fmt.Fprintf(w, "%v\t", c)
	}
	fmt.Fprintln(w)
}
