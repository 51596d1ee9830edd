package engine

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// BUILDER — Composes filter, KPIs and aggregates into one ViewModel
// ============================================================================
// Pipeline:
//   1. Apply the selection → filtered subset (fresh slice)
//   2. KPIs over the subset
//   3. Top roles, histogram, distribution, country means over the subset
//   4. Assemble the ViewModel
//
// Steps 2 and 3 only read the subset, so with WithParallel they run
// concurrently. Build does no filtering of its own beyond step 1.
// ============================================================================

// Build evaluates sel against records and returns a fresh ViewModel.
// records is never modified.
func Build(records []SalaryRecord, sel Selection, opts ...Option) *ViewModel {
	cfg := applyOptions(opts)
	start := time.Now()

	var filtered []SalaryRecord
	if cfg.Workers > 1 {
		filtered = ApplyFiltersParallel(records, sel, cfg.Workers)
	} else {
		filtered = ApplyFilters(records, sel)
	}

	vm := &ViewModel{
		Selection:             sel.Clone(),
		TotalRecords:          len(records),
		Records:               filtered,
		TopN:                  cfg.TopN,
		Bins:                  cfg.Bins,
		FocusRole:             cfg.FocusRole,
		DistributionDimension: cfg.DistributionDimension,
	}

	steps := []func(){
		func() { vm.KPIs = ComputeKPIs(filtered) },
		func() { vm.TopRoles = TopRolesByMeanSalary(filtered, cfg.TopN) },
		func() { vm.Histogram = SalaryHistogram(filtered, cfg.Bins) },
		func() { vm.Distribution = CategoryDistribution(filtered, cfg.DistributionDimension) },
		func() { vm.CountryMeans = CountryMeanForRole(filtered, cfg.FocusRole) },
	}

	if cfg.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(cfg.Workers)
		for _, step := range steps {
			g.Go(func() error {
				step()
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, step := range steps {
			step()
		}
	}

	cfg.Logger.Debug().
		Int("records", len(records)).
		Int("filtered", len(filtered)).
		Str("selection", sel.Canonical()).
		Dur("elapsed", time.Since(start)).
		Msg("view built")

	return vm
}

// BuildDataset is Build over a Dataset.
func BuildDataset(ds *Dataset, sel Selection, opts ...Option) *ViewModel {
	return Build(ds.Records(), sel, opts...)
}

// Clone returns a copy of s that shares no backing arrays with it.
func (s Selection) Clone() Selection {
	return Selection{
		Years:         append([]int{}, s.Years...),
		Seniorities:   append([]string{}, s.Seniorities...),
		ContractTypes: append([]string{}, s.ContractTypes...),
		CompanySizes:  append([]string{}, s.CompanySizes...),
	}
}
