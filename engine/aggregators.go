package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS — Group-by-then-reduce over a record subset
// ============================================================================
// Every aggregate states its own ordering and tie-break. Nothing depends on
// map iteration order.
// ============================================================================

// group is an intermediate bucket of records sharing one key.
type group struct {
	key   string
	sum   float64
	count int
}

func (g group) mean() float64 {
	if g.count == 0 {
		return 0
	}
	return g.sum / float64(g.count)
}

// groupBy buckets records by key, keeping groups in first-seen order.
// Records for which keep returns false are skipped.
func groupBy(records []SalaryRecord, key func(SalaryRecord) string, keep func(SalaryRecord) bool) []group {
	index := make(map[string]int)
	groups := make([]group, 0)

	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		k := key(r)
		i, exists := index[k]
		if !exists {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].sum += r.SalaryUSD
		groups[i].count++
	}
	return groups
}

// ============================================================================
// TOP ROLES BY MEAN SALARY
// ============================================================================

// TopRolesByMeanSalary returns the k roles with the highest mean salary,
// ordered ascending by mean so a horizontal bar chart shows the largest at
// the top. Selection ties go to the alphabetically first role; output ties
// are ordered by role ascending. k <= 0 yields no entries.
func TopRolesByMeanSalary(records []SalaryRecord, k int) []RoleMean {
	if k <= 0 || len(records) == 0 {
		return []RoleMean{}
	}

	groups := groupBy(records, func(r SalaryRecord) string { return r.Role }, nil)
	means := make([]RoleMean, 0, len(groups))
	for _, g := range groups {
		means = append(means, RoleMean{Role: g.key, MeanSalary: g.mean(), Count: g.count})
	}

	sort.Slice(means, func(i, j int) bool {
		if means[i].MeanSalary != means[j].MeanSalary {
			return means[i].MeanSalary > means[j].MeanSalary
		}
		return means[i].Role < means[j].Role
	})
	if len(means) > k {
		means = means[:k]
	}

	sort.Slice(means, func(i, j int) bool {
		if means[i].MeanSalary != means[j].MeanSalary {
			return means[i].MeanSalary < means[j].MeanSalary
		}
		return means[i].Role < means[j].Role
	})
	return means
}

// ============================================================================
// SALARY HISTOGRAM
// ============================================================================

// SalaryHistogram splits [min, max] of SalaryUSD into bins equal-width
// intervals and counts records per interval. The first bin is closed on
// both ends; every other bin is (lower, upper], so a value on a boundary
// lands in the lower-indexed bin.
//
// Empty input or bins <= 0 yields no bins. When every salary is identical
// the range has zero width and a single bin holds all records.
func SalaryHistogram(records []SalaryRecord, bins int) []HistogramBin {
	if len(records) == 0 || bins <= 0 {
		return []HistogramBin{}
	}

	lo, hi := records[0].SalaryUSD, records[0].SalaryUSD
	for _, r := range records[1:] {
		lo = math.Min(lo, r.SalaryUSD)
		hi = math.Max(hi, r.SalaryUSD)
	}

	if lo == hi {
		return []HistogramBin{{LowerBound: lo, UpperBound: hi, Count: len(records)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].LowerBound = lo + float64(i)*width
		out[i].UpperBound = lo + float64(i+1)*width
	}
	out[bins-1].UpperBound = hi

	for _, r := range records {
		out[binIndex(out, r.SalaryUSD)].Count++
	}
	return out
}

// binIndex returns the first bin whose published upper bound is >= v, so
// counts always agree with the bounds reported in out.
func binIndex(out []HistogramBin, v float64) int {
	i := sort.Search(len(out), func(j int) bool { return v <= out[j].UpperBound })
	if i >= len(out) {
		return len(out) - 1
	}
	return i
}

// ============================================================================
// CATEGORY DISTRIBUTION
// ============================================================================

// CategoryDistribution counts records per distinct value of dimension d,
// ordered by count descending. Ties are ordered by value: numerically for
// year, lexically otherwise. Missing values are counted under "" so the
// counts always sum to len(records). An unknown dimension yields no entries.
func CategoryDistribution(records []SalaryRecord, d Dimension) []CategoryCount {
	if !d.Valid() || len(records) == 0 {
		return []CategoryCount{}
	}

	groups := groupBy(records, func(r SalaryRecord) string { return r.Value(d) }, nil)
	out := make([]CategoryCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryCount{Value: g.key, Count: g.count})
	}

	less := naturalLess(d)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return less(out[i].Value, out[j].Value)
	})
	return out
}

func naturalLess(d Dimension) func(a, b string) bool {
	if d != DimYear {
		return func(a, b string) bool { return a < b }
	}
	return func(a, b string) bool {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr != nil || berr != nil {
			return a < b
		}
		return ai < bi
	}
}

// ============================================================================
// COUNTRY MEAN FOR ROLE
// ============================================================================

// CountryMeanForRole returns the mean salary per residence country among
// records whose role equals role. Records without a country are excluded
// and countries with no matching records are absent (no zero-fill).
func CountryMeanForRole(records []SalaryRecord, role string) map[string]float64 {
	groups := groupBy(records,
		func(r SalaryRecord) string { return r.ResidenceCountry },
		func(r SalaryRecord) bool { return r.Role == role && r.ResidenceCountry != "" },
	)

	out := make(map[string]float64, len(groups))
	for _, g := range groups {
		out[g.key] = g.mean()
	}
	return out
}

// CountryMean is one country entry of a geographic aggregate.
type CountryMean struct {
	Country    string  `json:"country"`
	MeanSalary float64 `json:"meanSalary"`
}

// SortedCountryMeans flattens a country → mean map ordered by country code.
func SortedCountryMeans(means map[string]float64) []CountryMean {
	out := make([]CountryMean, 0, len(means))
	for c, m := range means {
		out = append(out, CountryMean{Country: c, MeanSalary: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatUSD formats an amount as whole dollars with comma separators,
// e.g. 123456.7 → "$123,457".
func FormatUSD(amount float64) string {
	rounded := int(math.Round(amount))
	if rounded < 0 {
		return "-$" + FormatInt(-rounded)
	}
	return "$" + FormatInt(rounded)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// LabelForDimension returns a human-readable label for a dimension.
func LabelForDimension(d Dimension) string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
