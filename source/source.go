package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/spektr-org/salaryscope/config"
	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

// ============================================================================
// SOURCE — DataSource collaborators
// ============================================================================
// A Source fetches and parses the raw dataset once, upstream of the engine.
// Everything after Load is in-memory and I/O free.
// ============================================================================

// ErrUnknownKind is returned by Open for an unsupported source kind.
var ErrUnknownKind = errors.New("unknown source kind")

// Source loads typed salary records.
type Source interface {
	Load(ctx context.Context) ([]engine.SalaryRecord, LoadReport, error)
	Describe() string
}

// LoadDataset loads records from src into an immutable Dataset.
func LoadDataset(ctx context.Context, src Source, log zerolog.Logger) (*engine.Dataset, LoadReport, error) {
	records, report, err := src.Load(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("load %s: %w", src.Describe(), err)
	}
	log.Info().
		Str("source", src.Describe()).
		Int("rows", report.Rows).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Msg("dataset loaded")
	return engine.NewDataset(records), report, nil
}

// Open builds the Source described by cfg.
func Open(cfg config.SourceConfig, log zerolog.Logger) (Source, error) {
	csvOpts := CSVOptions{Layout: schema.DefaultLayout(), Strict: cfg.Strict, Logger: log}

	switch cfg.Kind {
	case config.SourceFile:
		return &FileSource{Path: cfg.Path, Options: csvOpts}, nil
	case config.SourceURL:
		return NewHTTPSource(cfg.URL, HTTPOptions{
			Timeout:     cfg.Timeout,
			MaxFailures: cfg.MaxFailures,
			CSV:         csvOpts,
		}), nil
	case config.SourcePostgres:
		src, err := OpenPostgres(cfg.DatabaseURL, cfg.Table, cfg.Timeout, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// ============================================================================
// FILE SOURCE
// ============================================================================

// FileSource reads a local CSV file.
type FileSource struct {
	Path    string
	Options CSVOptions
}

// Load opens and parses the file.
func (s *FileSource) Load(ctx context.Context) ([]engine.SalaryRecord, LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, LoadReport{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f, s.Options)
}

// Describe names the source for logs.
func (s *FileSource) Describe() string { return "file:" + s.Path }
