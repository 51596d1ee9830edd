package engine

import (
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// FILTERS — Four-dimension categorical filtering
// ============================================================================
// Single-pass filter: checks all four dimension constraints per record in
// one loop. Lookup sets are built once per call, never per record.
// Matching is exact; values outside the data's domain simply match nothing.
// ============================================================================

type filterSets struct {
	years         map[int]struct{}
	seniorities   map[string]struct{}
	contractTypes map[string]struct{}
	companySizes  map[string]struct{}
}

func newFilterSets(sel Selection) filterSets {
	years := make(map[int]struct{}, len(sel.Years))
	for _, y := range sel.Years {
		years[y] = struct{}{}
	}
	return filterSets{
		years:         years,
		seniorities:   toSet(sel.Seniorities),
		contractTypes: toSet(sel.ContractTypes),
		companySizes:  toSet(sel.CompanySizes),
	}
}

func (f filterSets) match(r SalaryRecord) bool {
	if _, ok := f.years[r.Year]; !ok {
		return false
	}
	if _, ok := f.seniorities[r.Seniority]; !ok {
		return false
	}
	if _, ok := f.contractTypes[r.ContractType]; !ok {
		return false
	}
	_, ok := f.companySizes[r.CompanySize]
	return ok
}

// ApplyFilters returns the records whose year, seniority, contract type and
// company size are all members of the selection's allowed sets.
// Input order is preserved. A dimension with no allowed values empties the
// result.
func ApplyFilters(records []SalaryRecord, sel Selection) []SalaryRecord {
	if sel.HasEmptyDimension() || len(records) == 0 {
		return []SalaryRecord{}
	}
	return filterChunk(records, newFilterSets(sel))
}

// ApplyFiltersParallel is ApplyFilters evaluated over contiguous chunks by
// up to workers goroutines. Chunk results are concatenated in input order,
// so the output is identical to ApplyFilters.
func ApplyFiltersParallel(records []SalaryRecord, sel Selection, workers int) []SalaryRecord {
	if workers <= 1 || len(records) < workers*minChunkSize {
		return ApplyFilters(records, sel)
	}
	if sel.HasEmptyDimension() {
		return []SalaryRecord{}
	}

	sets := newFilterSets(sel)
	chunkSize := (len(records) + workers - 1) / workers
	parts := make([][]SalaryRecord, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(records) {
			break
		}
		end := min(start+chunkSize, len(records))
		g.Go(func() error {
			parts[w] = filterChunk(records[start:end], sets)
			return nil
		})
	}
	_ = g.Wait() // chunk workers never fail

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]SalaryRecord, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// minChunkSize keeps tiny inputs on the sequential path.
const minChunkSize = 1024

func filterChunk(records []SalaryRecord, sets filterSets) []SalaryRecord {
	out := make([]SalaryRecord, 0, len(records))
	for _, r := range records {
		if sets.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
