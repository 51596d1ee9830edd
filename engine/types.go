package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// SALARYSCOPE ENGINE TYPES
// ============================================================================
// Records are strongly typed: every column the pipeline reads is a named
// field fixed at compile time. Column names from the raw data are resolved
// by the schema package before records ever reach the engine.
// ============================================================================

// ============================================================================
// RECORD
// ============================================================================

// SalaryRecord is one salary observation.
// SalaryUSD is never negative; sources drop rows that violate this.
type SalaryRecord struct {
	Year             int     `json:"year" db:"year"`
	Seniority        string  `json:"seniority" db:"seniority"`
	ContractType     string  `json:"contractType" db:"contract_type"`
	CompanySize      string  `json:"companySize" db:"company_size"`
	Role             string  `json:"role" db:"role"`
	SalaryUSD        float64 `json:"salaryUSD" db:"salary_usd"`
	RemoteType       string  `json:"remoteType" db:"remote_type"`
	ResidenceCountry string  `json:"residenceCountry,omitempty" db:"residence_country"`
}

// ============================================================================
// DIMENSIONS
// ============================================================================

// Dimension names a categorical column of SalaryRecord.
type Dimension string

const (
	DimYear             Dimension = "year"
	DimSeniority        Dimension = "seniority"
	DimContractType     Dimension = "contract_type"
	DimCompanySize      Dimension = "company_size"
	DimRole             Dimension = "role"
	DimRemoteType       Dimension = "remote_type"
	DimResidenceCountry Dimension = "residence_country"
)

// FilterDimensions are the four dimensions a Selection constrains, in
// display order.
var FilterDimensions = []Dimension{DimYear, DimSeniority, DimContractType, DimCompanySize}

// AllDimensions lists every categorical dimension.
var AllDimensions = []Dimension{
	DimYear, DimSeniority, DimContractType, DimCompanySize,
	DimRole, DimRemoteType, DimResidenceCountry,
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	for _, known := range AllDimensions {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDimension validates a dimension name. Hyphens and case are
// tolerated so "Company-Size" resolves to DimCompanySize.
func ParseDimension(name string) (Dimension, error) {
	d := Dimension(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dimension %q", name)
	}
	return d, nil
}

// Value returns the record's value for dimension d as a string.
// Unknown dimensions yield "".
func (r SalaryRecord) Value(d Dimension) string {
	switch d {
	case DimYear:
		return strconv.Itoa(r.Year)
	case DimSeniority:
		return r.Seniority
	case DimContractType:
		return r.ContractType
	case DimCompanySize:
		return r.CompanySize
	case DimRole:
		return r.Role
	case DimRemoteType:
		return r.RemoteType
	case DimResidenceCountry:
		return r.ResidenceCountry
	default:
		return ""
	}
}

// ============================================================================
// SELECTION — per-dimension allowed values
// ============================================================================

// Selection holds the allowed values for each filterable dimension.
// OR within a dimension, AND across dimensions.
//
// A nil or empty slice means nothing can satisfy that dimension, so the
// filtered result is empty. Use schema.Domains.FullSelection to select
// everything.
type Selection struct {
	Years         []int    `json:"years"`
	Seniorities   []string `json:"seniorities"`
	ContractTypes []string `json:"contractTypes"`
	CompanySizes  []string `json:"companySizes"`
}

// HasEmptyDimension reports whether any dimension allows no values.
func (s Selection) HasEmptyDimension() bool {
	return len(s.Years) == 0 || len(s.Seniorities) == 0 ||
		len(s.ContractTypes) == 0 || len(s.CompanySizes) == 0
}

// Canonical returns a stable textual form of the selection: dimensions in
// fixed order, values sorted and de-duplicated. Two selections that filter
// identically have the same canonical form.
func (s Selection) Canonical() string {
	years := make([]string, 0, len(s.Years))
	for _, y := range uniqueInts(s.Years) {
		years = append(years, strconv.Itoa(y))
	}

	parts := []string{
		string(DimYear) + "=" + strings.Join(years, ","),
		string(DimSeniority) + "=" + strings.Join(uniqueSorted(s.Seniorities), ","),
		string(DimContractType) + "=" + strings.Join(uniqueSorted(s.ContractTypes), ","),
		string(DimCompanySize) + "=" + strings.Join(uniqueSorted(s.CompanySizes), ","),
	}
	return strings.Join(parts, ";")
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, strconv.Quote(v))
		}
	}
	sort.Strings(out)
	return out
}

func uniqueInts(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// ============================================================================
// RESULTS
// ============================================================================

// KPIs are the scalar summaries of a record subset.
type KPIs struct {
	MeanSalary  float64 `json:"meanSalary"`
	MaxSalary   float64 `json:"maxSalary"`
	RecordCount int     `json:"recordCount"`
	ModalRole   string  `json:"modalRole"`
}

// RoleMean is one entry of the top-roles aggregate.
type RoleMean struct {
	Role       string  `json:"role"`
	MeanSalary float64 `json:"meanSalary"`
	Count      int     `json:"count"`
}

// HistogramBin is one equal-width salary interval.
// The first bin is [LowerBound, UpperBound]; later bins are (LowerBound, UpperBound].
type HistogramBin struct {
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
	Count      int     `json:"count"`
}

// CategoryCount is the number of records carrying one dimension value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ============================================================================
// VIEW MODEL — one filter evaluation, handed to presentation
// ============================================================================

// ViewModel bundles the filtered subset, KPIs and every aggregate computed
// for one Selection. It shares no backing storage with the raw records, so
// the caller owns it outright.
type ViewModel struct {
	Selection    Selection      `json:"selection"`
	TotalRecords int            `json:"totalRecords"`
	Records      []SalaryRecord `json:"records"`
	KPIs         KPIs           `json:"kpis"`

	TopRoles     []RoleMean         `json:"topRoles"`
	Histogram    []HistogramBin     `json:"histogram"`
	Distribution []CategoryCount    `json:"distribution"`
	CountryMeans map[string]float64 `json:"countryMeans"`

	// Parameters the aggregates were computed with.
	TopN                  int       `json:"topN"`
	Bins                  int       `json:"bins"`
	FocusRole             string    `json:"focusRole"`
	DistributionDimension Dimension `json:"distributionDimension"`
}

// IsEmpty reports whether the selection matched no records.
func (v *ViewModel) IsEmpty() bool {
	return v == nil || len(v.Records) == 0
}
