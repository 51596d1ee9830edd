package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spektr-org/salaryscope/cache"
	"github.com/spektr-org/salaryscope/config"
	"github.com/spektr-org/salaryscope/metrics"
	"github.com/spektr-org/salaryscope/service"
	"github.com/spektr-org/salaryscope/source"
)

// ============================================================================
// SALARYSCOPE CLI — Filter and aggregate salary records
// ============================================================================

const version = "0.3.0"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	file       string
	url        string
	logLevel   string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "salaryscope",
		Short: "Salaryscope - salary dashboard pipeline",
		Long: `Salaryscope loads a salary dataset, applies a four-way filter selection
(year, seniority, contract type, company size) and reports KPIs and
aggregates: top roles by mean salary, a salary histogram, a category
distribution and per-country means for one role.

Examples:
  # Everything, as text
  salaryscope view --format text

  # Seniors and mid-levels in 2024, five roles, as CSV
  salaryscope view --year 2024 --seniority senior,pleno --top 5 --format csv --out view.csv

  # Discover filter values
  salaryscope domains --format pretty

  # Serve the JSON API
  salaryscope serve --addr :8080

Environment:
  SALARYSCOPE_DATA_URL      Dataset URL
  SALARYSCOPE_DATA_FILE     Local CSV file
  SALARYSCOPE_DATABASE_URL  Postgres DSN
  SALARYSCOPE_REDIS_ADDR    Enables the Redis view cache
  SALARYSCOPE_LOG_LEVEL     trace, debug, info, warn, error
  SALARYSCOPE_ADDR          API listen address`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&o.file, "file", "", "Read records from a local CSV file")
	pf.StringVar(&o.url, "url", "", "Download records from a CSV URL")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level (overrides config)")
	root.MarkFlagsMutuallyExclusive("file", "url")

	root.AddCommand(newViewCmd(o))
	root.AddCommand(newDomainsCmd(o))
	root.AddCommand(newServeCmd(o))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "salaryscope %s\n", version)
		},
	})
	return root
}

// loadConfig reads the config file and environment, then applies flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.url != "" {
		cfg.Source.Kind, cfg.Source.URL = config.SourceURL, o.url
	}
	if o.file != "" {
		cfg.Source.Kind, cfg.Source.Path = config.SourceFile, o.file
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to stderr so that
// stdout carries only command output.
func newLogger(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: log level %q", config.ErrInvalid, cfg.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// app bundles everything a subcommand needs after startup.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	metrics  *metrics.Registry
	analyzer *service.Analyzer
	closers  []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

// setup loads config, logging, the dataset and the optional cache.
func (o *rootOptions) setup(ctx context.Context) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log, o.stderr)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	src, err := source.Open(cfg.Source, log)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	ds, report, err := source.LoadDataset(ctx, src, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics.ObserveLoad(report.Loaded, report.Skipped)
	if report.InvalidCountries > 0 {
		log.Warn().Int("count", report.InvalidCountries).Msg("dropped invalid residence country codes")
	}

	opts := service.Options{
		Metrics:     a.metrics,
		Logger:      log,
		ViewOptions: cfg.ViewOptions(),
		CachePrefix: cfg.Cache.Prefix,
	}
	if cfg.Cache.Enabled {
		rc, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("view cache unavailable, continuing without it")
		} else {
			opts.Cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	a.analyzer = service.New(ds, opts)
	return a, nil
}
