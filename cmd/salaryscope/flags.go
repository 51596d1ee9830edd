package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

// selectionFlags are the four filter dimensions. A flag left unset selects
// the whole domain; --flag= with no value selects nothing.
type selectionFlags struct {
	fs           *pflag.FlagSet
	years        []string
	seniorities  []string
	contracts    []string
	companySizes []string
}

const (
	flagYear        = "year"
	flagSeniority   = "seniority"
	flagContract    = "contract"
	flagCompanySize = "company-size"
)

func bindSelectionFlags(fs *pflag.FlagSet) *selectionFlags {
	s := &selectionFlags{fs: fs}
	fs.StringSliceVar(&s.years, flagYear, nil, "Years to include (default all)")
	fs.StringSliceVar(&s.seniorities, flagSeniority, nil, "Seniority levels to include (default all)")
	fs.StringSliceVar(&s.contracts, flagContract, nil, "Contract types to include (default all)")
	fs.StringSliceVar(&s.companySizes, flagCompanySize, nil, "Company sizes to include (default all)")
	return s
}

// resolve turns the flags into a Selection against the discovered domains.
func (s *selectionFlags) resolve(d schema.Domains) (engine.Selection, error) {
	sel := d.FullSelection()

	if s.fs.Changed(flagYear) {
		years := []int{}
		for _, v := range nonBlank(s.years) {
			y, err := strconv.Atoi(v)
			if err != nil {
				return sel, fmt.Errorf("invalid --%s value %q", flagYear, v)
			}
			years = append(years, y)
		}
		sel.Years = years
	}
	if s.fs.Changed(flagSeniority) {
		sel.Seniorities = nonBlank(s.seniorities)
	}
	if s.fs.Changed(flagContract) {
		sel.ContractTypes = nonBlank(s.contracts)
	}
	if s.fs.Changed(flagCompanySize) {
		sel.CompanySizes = nonBlank(s.companySizes)
	}
	return sel, nil
}

func nonBlank(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
