package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

// Query parameter names. Each filter parameter takes a comma-separated list
// and may repeat. An absent parameter selects every value of the dimension;
// a present but empty one selects nothing.
const (
	paramYear        = "year"
	paramSeniority   = "seniority"
	paramContract    = "contract_type"
	paramCompanySize = "company_size"
	paramTop         = "top"
	paramBins        = "bins"
	paramRole        = "role"
	paramDimension   = "dimension"
)

// viewRequest is the POST /view body. A null or missing filter list selects
// every value of that dimension; [] selects nothing.
type viewRequest struct {
	Years        []int    `json:"years"`
	Seniorities  []string `json:"seniorities"`
	ContractType []string `json:"contractTypes"`
	CompanySizes []string `json:"companySizes"`

	TopN      *int    `json:"topN,omitempty"`
	Bins      *int    `json:"bins,omitempty"`
	FocusRole *string `json:"focusRole,omitempty"`
	Dimension *string `json:"dimension,omitempty"`
}

func (req viewRequest) selection(d schema.Domains) engine.Selection {
	sel := d.FullSelection()
	if req.Years != nil {
		sel.Years = req.Years
	}
	if req.Seniorities != nil {
		sel.Seniorities = req.Seniorities
	}
	if req.ContractType != nil {
		sel.ContractTypes = req.ContractType
	}
	if req.CompanySizes != nil {
		sel.CompanySizes = req.CompanySizes
	}
	return nonNilSelection(sel)
}

func (req viewRequest) options() ([]engine.Option, error) {
	var opts []engine.Option
	if req.TopN != nil {
		if *req.TopN < 0 {
			return nil, fmt.Errorf("topN must not be negative")
		}
		opts = append(opts, engine.WithTopN(*req.TopN))
	}
	if req.Bins != nil {
		if *req.Bins < 0 {
			return nil, fmt.Errorf("bins must not be negative")
		}
		opts = append(opts, engine.WithBins(*req.Bins))
	}
	if req.FocusRole != nil {
		opts = append(opts, engine.WithFocusRole(*req.FocusRole))
	}
	if req.Dimension != nil {
		d, err := engine.ParseDimension(*req.Dimension)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithDistributionDimension(d))
	}
	return opts, nil
}

// parseQuery builds a selection and per-request options from URL query
// parameters.
func parseQuery(q url.Values, d schema.Domains) (engine.Selection, []engine.Option, error) {
	sel := d.FullSelection()

	if values, ok := listParam(q, paramYear); ok {
		years := make([]int, 0, len(values))
		for _, v := range values {
			y, err := strconv.Atoi(v)
			if err != nil {
				return sel, nil, fmt.Errorf("invalid %s %q", paramYear, v)
			}
			years = append(years, y)
		}
		sel.Years = years
	}
	if values, ok := listParam(q, paramSeniority); ok {
		sel.Seniorities = values
	}
	if values, ok := listParam(q, paramContract); ok {
		sel.ContractTypes = values
	}
	if values, ok := listParam(q, paramCompanySize); ok {
		sel.CompanySizes = values
	}

	var req viewRequest
	for _, p := range []struct {
		name string
		dst  **int
	}{{paramTop, &req.TopN}, {paramBins, &req.Bins}} {
		if raw := q.Get(p.name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return sel, nil, fmt.Errorf("invalid %s %q", p.name, raw)
			}
			*p.dst = &n
		}
	}
	if q.Has(paramRole) {
		role := q.Get(paramRole)
		req.FocusRole = &role
	}
	if raw := q.Get(paramDimension); raw != "" {
		req.Dimension = &raw
	}

	opts, err := req.options()
	if err != nil {
		return sel, nil, err
	}
	return nonNilSelection(sel), opts, nil
}

// listParam splits every occurrence of name on commas, dropping blanks.
func listParam(q url.Values, name string) ([]string, bool) {
	raw, ok := q[name]
	if !ok {
		return nil, false
	}
	values := []string{}
	for _, item := range raw {
		for _, v := range strings.Split(item, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values, true
}

// nonNilSelection keeps empty dimensions serialized as [] rather than null.
func nonNilSelection(sel engine.Selection) engine.Selection {
	if sel.Years == nil {
		sel.Years = []int{}
	}
	if sel.Seniorities == nil {
		sel.Seniorities = []string{}
	}
	if sel.ContractTypes == nil {
		sel.ContractTypes = []string{}
	}
	if sel.CompanySizes == nil {
		sel.CompanySizes = []string{}
	}
	return sel
}
