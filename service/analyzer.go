package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/spektr-org/salaryscope/cache"
	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/metrics"
	"github.com/spektr-org/salaryscope/schema"
)

// ============================================================================
// ANALYZER — Dataset + filter domains + optional cache
// ============================================================================
// The analyzer owns one immutable dataset for the life of a process and
// answers selections against it. It is safe for concurrent use: the dataset
// is read-only and every evaluation builds a fresh ViewModel.
// ============================================================================

// ViewCache memoizes evaluations. Implementations must be safe for
// concurrent use.
type ViewCache interface {
	Get(ctx context.Context, key string) (*engine.ViewModel, bool, error)
	Set(ctx context.Context, key string, vm *engine.ViewModel) error
}

// Options configures an Analyzer. Every field is optional.
type Options struct {
	Cache       ViewCache
	CachePrefix string
	Metrics     *metrics.Registry
	Logger      zerolog.Logger
	ViewOptions []engine.Option
}

// Analyzer evaluates selections against a loaded dataset.
type Analyzer struct {
	dataset *engine.Dataset
	domains schema.Domains
	cache   ViewCache
	prefix  string
	metrics *metrics.Registry
	log     zerolog.Logger
	opts    []engine.Option
}

// New discovers the filter domains of ds and returns an Analyzer over it.
func New(ds *engine.Dataset, o Options) *Analyzer {
	return &Analyzer{
		dataset: ds,
		domains: schema.Discover(ds.Records()),
		cache:   o.Cache,
		prefix:  o.CachePrefix,
		metrics: o.Metrics,
		log:     o.Logger,
		opts:    append([]engine.Option(nil), o.ViewOptions...),
	}
}

// Dataset returns the analyzed dataset.
func (a *Analyzer) Dataset() *engine.Dataset { return a.dataset }

// Domains returns the distinct values of every dimension.
func (a *Analyzer) Domains() schema.Domains { return a.domains }

// FullSelection selects every value of every filter dimension.
func (a *Analyzer) FullSelection() engine.Selection { return a.domains.FullSelection() }

// Params reports the aggregate parameters an evaluation with extra would use.
func (a *Analyzer) Params(extra ...engine.Option) engine.Params {
	return engine.ResolveParams(a.options(extra)...)
}

// Evaluate answers sel. extra options override the analyzer's defaults for
// this call only. Cache failures are logged and fall through to a fresh
// computation.
func (a *Analyzer) Evaluate(ctx context.Context, sel engine.Selection, extra ...engine.Option) (*engine.ViewModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	opts := a.options(extra)

	var key string
	if a.cache != nil {
		key = cache.Key(a.prefix, a.dataset.Fingerprint(), sel, engine.ResolveParams(opts...))
		vm, ok, err := a.cache.Get(ctx, key)
		switch {
		case err != nil:
			a.cacheError(err, "view cache read failed")
		case ok:
			a.observeCache(true)
			a.observe(metrics.OutcomeCached, vm, start)
			// Equivalent selections share a key; report the one asked for.
			hit := *vm
			hit.Selection = sel.Clone()
			return &hit, nil
		default:
			a.observeCache(false)
		}
	}

	vm := engine.BuildDataset(a.dataset, sel, append(opts, engine.WithLogger(a.log))...)

	outcome := metrics.OutcomeComputed
	if vm.IsEmpty() {
		outcome = metrics.OutcomeEmpty
	}
	a.observe(outcome, vm, start)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, vm); err != nil {
			a.cacheError(err, "view cache write failed")
		}
	}
	return vm, nil
}

func (a *Analyzer) options(extra []engine.Option) []engine.Option {
	opts := make([]engine.Option, 0, len(a.opts)+len(extra)+1)
	opts = append(opts, a.opts...)
	return append(opts, extra...)
}

func (a *Analyzer) observe(outcome string, vm *engine.ViewModel, start time.Time) {
	if a.metrics == nil {
		return
	}
	a.metrics.ObserveEvaluation(outcome, len(vm.Records), time.Since(start))
}

func (a *Analyzer) observeCache(hit bool) {
	if a.metrics == nil {
		return
	}
	if hit {
		a.metrics.CacheHits.Inc()
	} else {
		a.metrics.CacheMisses.Inc()
	}
}

func (a *Analyzer) cacheError(err error, msg string) {
	a.log.Warn().Err(err).Msg(msg)
	if a.metrics != nil {
		a.metrics.CacheErrors.Inc()
	}
}
