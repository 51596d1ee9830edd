package schema

import (
	"sort"

	"github.com/spektr-org/salaryscope/engine"
)

// ============================================================================
// DOMAIN DISCOVERY — Data-driven categorical domains
// ============================================================================
// Domains are never hard-coded: each is the sorted set of distinct values
// observed in the full raw collection. Filter widgets offer these values and
// select all of them by default.
// ============================================================================

// Domains holds the distinct values of every categorical dimension.
type Domains struct {
	Years              []int    `json:"years"`
	Seniorities        []string `json:"seniorities"`
	ContractTypes      []string `json:"contractTypes"`
	CompanySizes       []string `json:"companySizes"`
	Roles              []string `json:"roles"`
	RemoteTypes        []string `json:"remoteTypes"`
	ResidenceCountries []string `json:"residenceCountries"`
}

// Discover computes the domains of records. Empty residence countries are
// not part of the country domain.
func Discover(records []engine.SalaryRecord) Domains {
	years := make(map[int]bool)
	sets := make(map[engine.Dimension]map[string]bool)
	for _, d := range engine.AllDimensions {
		sets[d] = make(map[string]bool)
	}

	for _, r := range records {
		years[r.Year] = true
		sets[engine.DimSeniority][r.Seniority] = true
		sets[engine.DimContractType][r.ContractType] = true
		sets[engine.DimCompanySize][r.CompanySize] = true
		sets[engine.DimRole][r.Role] = true
		sets[engine.DimRemoteType][r.RemoteType] = true
		if r.ResidenceCountry != "" {
			sets[engine.DimResidenceCountry][r.ResidenceCountry] = true
		}
	}

	yearList := make([]int, 0, len(years))
	for y := range years {
		yearList = append(yearList, y)
	}
	sort.Ints(yearList)

	return Domains{
		Years:              yearList,
		Seniorities:        sortedKeys(sets[engine.DimSeniority]),
		ContractTypes:      sortedKeys(sets[engine.DimContractType]),
		CompanySizes:       sortedKeys(sets[engine.DimCompanySize]),
		Roles:              sortedKeys(sets[engine.DimRole]),
		RemoteTypes:        sortedKeys(sets[engine.DimRemoteType]),
		ResidenceCountries: sortedKeys(sets[engine.DimResidenceCountry]),
	}
}

// FullSelection selects every value of every filterable dimension, which
// passes every record of the collection the domains came from.
func (d Domains) FullSelection() engine.Selection {
	return engine.Selection{
		Years:         append([]int{}, d.Years...),
		Seniorities:   append([]string{}, d.Seniorities...),
		ContractTypes: append([]string{}, d.ContractTypes...),
		CompanySizes:  append([]string{}, d.CompanySizes...),
	}
}

// Values returns the domain of dimension dim as strings.
func (d Domains) Values(dim engine.Dimension) []string {
	switch dim {
	case engine.DimYear:
		out := make([]string, len(d.Years))
		for i, y := range d.Years {
			out[i] = engine.SalaryRecord{Year: y}.Value(engine.DimYear)
		}
		return out
	case engine.DimSeniority:
		return d.Seniorities
	case engine.DimContractType:
		return d.ContractTypes
	case engine.DimCompanySize:
		return d.CompanySizes
	case engine.DimRole:
		return d.Roles
	case engine.DimRemoteType:
		return d.RemoteTypes
	case engine.DimResidenceCountry:
		return d.ResidenceCountries
	default:
		return nil
	}
}

// DimensionMeta describes one categorical dimension for filter widgets.
type DimensionMeta struct {
	Key             engine.Dimension `json:"key"`
	DisplayName     string           `json:"displayName"`
	Values          []string         `json:"values"`
	Filterable      bool             `json:"filterable"`
	CardinalityHint string           `json:"cardinalityHint"` // "low", "medium", "high"
}

// Describe lists every dimension with its domain, filterable ones first.
func (d Domains) Describe() []DimensionMeta {
	filterable := make(map[engine.Dimension]bool, len(engine.FilterDimensions))
	for _, f := range engine.FilterDimensions {
		filterable[f] = true
	}

	out := make([]DimensionMeta, 0, len(engine.AllDimensions))
	for _, dim := range engine.AllDimensions {
		values := d.Values(dim)
		out = append(out, DimensionMeta{
			Key:             dim,
			DisplayName:     engine.LabelForDimension(dim),
			Values:          values,
			Filterable:      filterable[dim],
			CardinalityHint: cardinalityHint(len(values)),
		})
	}
	return out
}

func cardinalityHint(n int) string {
	switch {
	case n <= 10:
		return "low"
	case n <= 50:
		return "medium"
	default:
		return "high"
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
