package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

// ============================================================================
// CSV PARSER — Raw tabular bytes → []engine.SalaryRecord
// ============================================================================
// Column names are resolved once through the schema layout. Rows that cannot
// be coerced into a valid record are skipped and counted; the load fails only
// when the header itself is unusable.
// ============================================================================

// LoadReport summarizes one load.
type LoadReport struct {
	Rows           int      `json:"rows"`
	Loaded         int      `json:"loaded"`
	Skipped        int      `json:"skipped"`
	UnknownColumns []string `json:"unknownColumns,omitempty"`
	// Countries blanked because they were not three-letter codes.
	InvalidCountries int `json:"invalidCountries"`
}

// CSVOptions controls parsing.
type CSVOptions struct {
	Layout schema.Layout
	Strict bool
	Logger zerolog.Logger
}

// DefaultCSVOptions uses the default layout and a no-op logger.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Layout: schema.DefaultLayout(), Logger: zerolog.Nop()}
}

// ParseCSV reads records from r.
func ParseCSV(r io.Reader, opts CSVOptions) ([]engine.SalaryRecord, LoadReport, error) {
	var report LoadReport
	if opts.Layout == nil {
		opts.Layout = schema.DefaultLayout()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, fmt.Errorf("failed to read CSV headers: empty input")
		}
		return nil, report, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	headers = append([]string(nil), headers...)

	cols, unknown, err := schema.ResolveColumns(headers, opts.Layout, opts.Strict)
	report.UnknownColumns = unknown
	if err != nil {
		return nil, report, err
	}
	if len(unknown) > 0 {
		opts.Logger.Debug().Strs("columns", unknown).Msg("ignoring unmapped CSV columns")
	}

	var records []engine.SalaryRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		report.Rows++
		if err != nil {
			report.Skipped++
			opts.Logger.Warn().Err(err).Int("row", report.Rows).Msg("skipping unreadable CSV row")
			continue
		}

		rec, blanked, err := parseRow(row, cols)
		if err != nil {
			report.Skipped++
			opts.Logger.Warn().Err(err).Int("row", report.Rows).Msg("skipping malformed CSV row")
			continue
		}
		if blanked {
			report.InvalidCountries++
		}
		records = append(records, rec)
	}

	report.Loaded = len(records)
	return records, report, nil
}

// parseRow coerces one CSV row. It reports whether a country value was
// present but invalid and therefore dropped.
func parseRow(row []string, cols schema.ColumnMap) (engine.SalaryRecord, bool, error) {
	get := func(f schema.Field) string {
		i := cols.Index(f)
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec engine.SalaryRecord

	yearStr := get(schema.FieldYear)
	year, err := parseYear(yearStr)
	if err != nil {
		return rec, false, fmt.Errorf("year %q: %w", yearStr, err)
	}

	usdStr := get(schema.FieldSalaryUSD)
	usd, err := strconv.ParseFloat(usdStr, 64)
	if err != nil {
		return rec, false, fmt.Errorf("salary %q: %w", usdStr, err)
	}
	if usd < 0 || math.IsNaN(usd) || math.IsInf(usd, 0) {
		return rec, false, fmt.Errorf("salary %q: must be a finite non-negative number", usdStr)
	}

	rec = engine.SalaryRecord{
		Year:         year,
		Seniority:    get(schema.FieldSeniority),
		ContractType: get(schema.FieldContractType),
		CompanySize:  get(schema.FieldCompanySize),
		Role:         get(schema.FieldRole),
		SalaryUSD:    usd,
		RemoteType:   get(schema.FieldRemoteType),
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"seniority", rec.Seniority},
		{"contract type", rec.ContractType},
		{"company size", rec.CompanySize},
		{"role", rec.Role},
		{"remote type", rec.RemoteType},
	} {
		if f.value == "" {
			return rec, false, fmt.Errorf("%s is empty", f.name)
		}
	}

	country, ok := NormalizeCountry(get(schema.FieldResidenceCountry))
	rec.ResidenceCountry = country
	return rec, !ok, nil
}

// parseYear accepts "2024" and float renderings such as "2024.0".
func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole year")
	}
	return int(f), nil
}

// NormalizeCountry upper-cases a residence code. Empty input is a valid
// absent country. Anything other than three ASCII letters is dropped and
// reported as invalid.
func NormalizeCountry(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", true
	}
	if len(s) != 3 {
		return "", false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return "", false
		}
	}
	return s, true
}
