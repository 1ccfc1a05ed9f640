package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schema-miner/internal/adapter"
	"schema-miner/internal/analyzer"
	"schema-miner/internal/config"
	"schema-miner/internal/logging"
	"schema-miner/internal/pipeline"
	"schema-miner/internal/relation"
	"schema-miner/internal/renderer"
)

var (
	cfgFile string

	// logger is replaced once configuration is loaded.
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "schema-miner",
		Short:         "Infer foreign keys from table contents",
		Long:          "Mines column value overlaps between tables, merges them into typed relations and prunes the relation graph down to its likely foreign keys.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./schema-miner.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json (default console)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Infer relations and write the graph, report and ER diagram",
		RunE:  runScan,
	}
	addSourceFlags(scanCmd)
	scanCmd.Flags().String("decisions", "", "review decisions file to apply")
	scanCmd.Flags().Bool("discard-weak-reverse", false, "drop relations whose parent barely overlaps the child")
	scanCmd.Flags().Bool("prune", true, "remove transitively implied edges")
	scanCmd.Flags().Bool("resolve-multi-parent", true, "collapse columns pointing at several parents")
	scanCmd.Flags().StringSlice("format", nil, "output formats: json, markdown, mermaid (default all)")

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Write a decisions file for relations that need a human verdict",
		RunE:  runReview,
	}
	addSourceFlags(reviewCmd)
	reviewCmd.Flags().String("write", "", "decisions file to write (default <out>/decisions.yaml)")

	rootCmd.AddCommand(scanCmd, reviewCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(logger, err)
		os.Exit(1)
	}
}

// reportError logs a command failure, falling back to a console logger when
// configuration never got far enough to build one.
func reportError(l *zap.Logger, err error) {
	if l == nil {
		var buildErr error
		if l, buildErr = logging.New("error", "console"); buildErr != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
	}
	l.Error("command failed", zap.Error(err))
	_ = l.Sync()
}

func addSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("source", "", "source type: csv, parquet, mysql, sqlserver, postgres, sqlite")
	f.String("path", "", "folder of csv/parquet files or sqlite database file")
	f.String("dsn", "", "connection string for mysql, sqlserver or postgres")
	f.String("schema", "", "database schema to read")
	f.StringSlice("tables", nil, "only read these tables")
	f.Int("row-limit", 0, "read at most this many rows per table")
	f.String("strictness", "", "column type strictness: exact, family or none")
	f.Int("workers", 0, "table pairs mined concurrently (default GOMAXPROCS)")
	f.Float64("tolerance", 0, "strength leniency of the relation filter (default 0.01)")
	f.Float64("min-reverse-strength", 0, "reverse strength below which a relation is a weak reverse candidate (default 0.2)")
	f.String("out", "", "output directory")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Loaded, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	logger = l
	if cfg.File != "" {
		l.Debug("loaded config file", zap.String("path", cfg.File))
	}
	return cfg, l, nil
}

func loadTables(ctx context.Context, cfg *config.Loaded, logger *zap.Logger) (map[string]*adapter.Table, error) {
	logger.Info("loading tables",
		zap.String("source", cfg.Source.Type),
		zap.String("path", cfg.Source.Path),
		zap.String("dsn", logging.SanitizeConnectionString(cfg.Source.DSN)))

	tables, err := adapter.Load(ctx, cfg.Source.LoaderConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("load %s source: %w", cfg.Source.Type, err)
	}
	if len(tables) < 2 {
		logger.Warn("fewer than two tables loaded, no relation can be found", zap.Int("tables", len(tables)))
	}
	fmt.Printf("✓ loaded %d tables\n", len(tables))
	return tables, nil
}

func pipelineOptions(cfg *config.Loaded, logger *zap.Logger) pipeline.Options {
	return pipeline.Options{
		Strictness:         cfg.Strictness(),
		Workers:            cfg.Mining.Workers,
		Tolerance:          cfg.Filter.Tolerance,
		MinReverseStrength: cfg.Review.MinReverseStrength,
		DiscardWeakReverse: cfg.Review.DiscardWeakReverse,
		PruneRedundant:     cfg.Graph.PruneRedundant,
		ResolveMultiParent: cfg.Graph.ResolveMultiParent,
		Logger:             logger,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opts := pipelineOptions(cfg, logger)
	if cfg.Review.DecisionsFile != "" {
		opts.Decisions, err = relation.LoadDecisions(cfg.Review.DecisionsFile)
		if err != nil {
			return err
		}
	}

	tables, err := loadTables(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(cmd.Context(), tables, opts)
	if err != nil {
		return err
	}

	if err := writeOutputs(cfg, res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderer.RenderEdgeTable(out, res.Final)
	renderer.RenderAnomalyTable(out, res.Anomalies)
	for _, a := range res.Anomalies {
		logger.Warn("suspicious relation in final graph", zap.String("relation", a.Edge.ID), zap.String("reason", a.Reason))
	}
	if n := len(res.Confused) + len(res.WeakReverse); n > 0 && opts.Decisions == nil {
		fmt.Fprintf(out, "%d relations need review, run `schema-miner review` to write a decisions file\n", n)
	}
	return nil
}

func writeOutputs(cfg *config.Loaded, res *pipeline.Result) error {
	dir := cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("✓ %s\n", path)
		return nil
	}

	if cfg.WantsFormat(config.FormatJSON) {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := write("schema.json", data); err != nil {
			return err
		}
	}
	if cfg.WantsFormat(config.FormatMarkdown) {
		if err := write("report.md", []byte(renderer.NewMarkdownRenderer().Render(res))); err != nil {
			return err
		}
	}
	if cfg.WantsFormat(config.FormatMermaid) {
		if err := write("er.mmd", []byte(renderer.NewMermaidRenderer().Render(res.Final))); err != nil {
			return err
		}
	}
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	tables, err := loadTables(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	res, err := pipeline.Discover(cmd.Context(), tables, pipelineOptions(cfg, logger))
	if err != nil {
		return err
	}

	template := relation.DecisionTemplate(res.Confused, res.WeakReverse, analyzer.NameSimilarity)
	renderer.RenderDecisionTable(cmd.OutOrStdout(), template)
	if len(template.Decisions) == 0 {
		return nil
	}

	path, _ := cmd.Flags().GetString("write")
	if path == "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path = filepath.Join(cfg.Output.Dir, "decisions.yaml")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create decisions file: %w", err)
	}
	defer f.Close()
	if err := template.Encode(f); err != nil {
		return err
	}
	fmt.Printf("✓ %s (edit the actions, then run scan --decisions %s)\n", path, path)
	return nil
}
