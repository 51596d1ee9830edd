package engine

import (
	"github.com/rs/zerolog"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Build()
// ============================================================================

// Defaults match the dashboard the pipeline was built for.
const (
	DefaultTopN                  = 10
	DefaultBins                  = 30
	DefaultFocusRole             = "Data Scientist"
	DefaultDistributionDimension = DimRemoteType
)

// Option configures Build via the functional options pattern.
type Option func(*config)

type config struct {
	TopN                  int
	Bins                  int
	FocusRole             string
	DistributionDimension Dimension
	Workers               int
	Logger                zerolog.Logger
}

// WithTopN sets how many roles the top-roles aggregate keeps.
func WithTopN(k int) Option {
	return func(c *config) { c.TopN = k }
}

// WithBins sets the histogram bin count.
func WithBins(n int) Option {
	return func(c *config) { c.Bins = n }
}

// WithFocusRole sets the role whose per-country mean salary is computed.
func WithFocusRole(role string) Option {
	return func(c *config) { c.FocusRole = role }
}

// WithDistributionDimension sets the dimension for the category
// distribution aggregate. Invalid dimensions are ignored.
func WithDistributionDimension(d Dimension) Option {
	return func(c *config) {
		if d.Valid() {
			c.DistributionDimension = d
		}
	}
}

// WithParallel filters in chunks and computes KPIs and aggregates
// concurrently using up to workers goroutines. Output is identical to the
// sequential path.
func WithParallel(workers int) Option {
	return func(c *config) { c.Workers = workers }
}

// WithLogger sets the logger used for per-evaluation debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.Logger = l }
}

// Params describes the aggregate parameters a set of options resolves to.
// Callers use it to key caches.
type Params struct {
	TopN                  int       `json:"topN"`
	Bins                  int       `json:"bins"`
	FocusRole             string    `json:"focusRole"`
	DistributionDimension Dimension `json:"distributionDimension"`
}

// ResolveParams applies opts to the defaults and reports the result.
func ResolveParams(opts ...Option) Params {
	cfg := applyOptions(opts)
	return Params{
		TopN:                  cfg.TopN,
		Bins:                  cfg.Bins,
		FocusRole:             cfg.FocusRole,
		DistributionDimension: cfg.DistributionDimension,
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		TopN:                  DefaultTopN,
		Bins:                  DefaultBins,
		FocusRole:             DefaultFocusRole,
		DistributionDimension: DefaultDistributionDimension,
		Logger:                zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
