// Command interpret-report turns a saved free-text dental report into the
// structured sections, insight cards and area markers the web client shows.
//
// Usage:
//
//	interpret-report report.txt
//	cat report.txt | interpret-report --format markdown
//	interpret-report catalog seed --db catalog.db
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/dentalscan/internal/catalog"
	"github.com/joelkehle/dentalscan/internal/interpret"
	"github.com/joelkehle/dentalscan/internal/report"
)

type rootOptions struct {
	format          string
	catalogPath     string
	fixedConfidence int
	verbose         bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "interpret-report [file]",
		Short:         "Interpret a free-text dental report",
		Long:          "Reads a report from a file or stdin and prints the structured analysis as JSON, markdown or HTML.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpret(cmd, opts, args)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Catalog file (.yaml or .db); empty uses the built-in catalog")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: json, markdown or html")
	cmd.Flags().IntVar(&opts.fixedConfidence, "fixed-confidence", 0, "Use this confidence when the report states no percentage")

	cmd.AddCommand(newCatalogCmd(opts))
	return cmd
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runInterpret(cmd *cobra.Command, opts *rootOptions, args []string) error {
	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()

	format := strings.ToLower(strings.TrimSpace(opts.format))
	switch format {
	case "json", "markdown", "md", "html":
	default:
		return fmt.Errorf("unknown --format %q (want json, markdown or html)", opts.format)
	}

	text, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s: report is empty", source)
	}

	cfg, err := catalog.Load(cmd.Context(), opts.catalogPath)
	if err != nil {
		return err
	}
	var interpOpts []interpret.Option
	if cmd.Flags().Changed("fixed-confidence") {
		interpOpts = append(interpOpts, interpret.WithConfidencePolicy(interpret.Fixed(opts.fixedConfidence)))
	}
	interp, err := interpret.New(cfg, interpOpts...)
	if err != nil {
		return err
	}

	a := interp.Interpret(text)
	env := report.BuildResponse(a, nil)
	logger.Debug("interpreted report",
		zap.String("source", source),
		zap.String("analysis_id", env.AnalysisID),
		zap.Int("insights", len(env.Insights)),
		zap.Bool("raw_fallback", a.Sections.Empty()),
	)

	out := cmd.OutOrStdout()
	switch format {
	case "markdown", "md":
		_, err = io.WriteString(out, env.ReportMarkdown)
	case "html":
		html, renderErr := report.RenderHTML(env.ReportMarkdown)
		if renderErr != nil {
			return renderErr
		}
		_, err = io.WriteString(out, html)
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(env)
	}
	return err
}

func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return string(data), args[0], nil
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or seed the condition catalog",
	}

	var dbPath string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Write the catalog into a SQLite database",
		Long:  "Writes the catalog selected by --catalog (the built-in one by default) into --db, replacing its contents.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.verbose)
			defer func() { _ = logger.Sync() }()

			cfg, err := catalog.Load(cmd.Context(), opts.catalogPath)
			if err != nil {
				return err
			}
			store, err := catalog.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(cmd.Context(), cfg); err != nil {
				return err
			}
			logger.Info("seeded catalog", zap.String("db", dbPath), zap.Int("conditions", len(cfg.Catalog)))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d conditions into %s\n", len(cfg.Catalog), dbPath)
			return nil
		},
	}
	seed.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	_ = seed.MarkFlagRequired("db")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := catalog.Load(cmd.Context(), opts.catalogPath)
			if err != nil {
				return err
			}
			data, err := catalog.EncodeYAML(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(seed, show)
	return cmd
}
