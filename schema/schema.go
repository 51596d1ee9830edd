package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// SCHEMA — Maps raw column headers onto SalaryRecord fields
// ============================================================================
// The engine reads typed fields only. Sources call ResolveColumns once per
// input to turn header names into field positions; unknown headers are
// reported here, at the boundary, and never reach the engine.
// ============================================================================

var (
	// ErrMissingColumn is returned when a required field has no header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnknownColumn is returned in strict mode for unmapped headers.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when two headers map to one field.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Field identifies a SalaryRecord field.
type Field string

const (
	FieldYear             Field = "year"
	FieldSeniority        Field = "seniority"
	FieldContractType     Field = "contract_type"
	FieldCompanySize      Field = "company_size"
	FieldRole             Field = "role"
	FieldSalaryUSD        Field = "salary_usd"
	FieldRemoteType       Field = "remote_type"
	FieldResidenceCountry Field = "residence_country"
)

// FieldMeta describes one field and the header names that map to it.
type FieldMeta struct {
	Field       Field    `json:"field"`
	DisplayName string   `json:"displayName"`
	Aliases     []string `json:"aliases"`
	Required    bool     `json:"required"`
}

// Layout is the ordered set of fields a source must provide.
type Layout []FieldMeta

// DefaultLayout accepts the column names of the published salary dataset
// (Portuguese) as well as common English equivalents.
func DefaultLayout() Layout {
	return Layout{
		{Field: FieldYear, DisplayName: "Year", Required: true,
			Aliases: []string{"ano", "work_year"}},
		{Field: FieldSeniority, DisplayName: "Seniority", Required: true,
			Aliases: []string{"senioridade", "experience_level", "level"}},
		{Field: FieldContractType, DisplayName: "Contract Type", Required: true,
			Aliases: []string{"contrato", "employment_type", "contract"}},
		{Field: FieldCompanySize, DisplayName: "Company Size", Required: true,
			Aliases: []string{"tamanho_empresa"}},
		{Field: FieldRole, DisplayName: "Role", Required: true,
			Aliases: []string{"cargo", "job_title", "title"}},
		{Field: FieldSalaryUSD, DisplayName: "Salary (USD)", Required: true,
			Aliases: []string{"usd", "salary_in_usd", "salario_usd"}},
		{Field: FieldRemoteType, DisplayName: "Remote Type", Required: true,
			Aliases: []string{"remoto", "work_type", "remote"}},
		{Field: FieldResidenceCountry, DisplayName: "Residence Country", Required: false,
			Aliases: []string{"residencia_iso3", "employee_residence_iso3", "country_iso3", "residence_iso3"}},
	}
}

// lookup returns the field a normalized header maps to.
func (l Layout) lookup(key string) (FieldMeta, bool) {
	for _, f := range l {
		if key == string(f.Field) {
			return f, true
		}
		for _, alias := range f.Aliases {
			if key == alias {
				return f, true
			}
		}
	}
	return FieldMeta{}, false
}

// ColumnMap maps each field to its column index in a header row.
type ColumnMap map[Field]int

// Index returns the column index of f, or -1 when f is absent.
func (m ColumnMap) Index(f Field) int {
	if i, ok := m[f]; ok {
		return i
	}
	return -1
}

// ResolveColumns maps header names onto layout fields. Headers are matched
// case-insensitively after snake_case normalization. It returns the column
// map and the headers that matched no field. With strict set, any unknown
// header is an error.
func ResolveColumns(headers []string, layout Layout, strict bool) (ColumnMap, []string, error) {
	cols := make(ColumnMap, len(layout))
	var unknown []string

	for i, h := range headers {
		key := toSnakeCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		meta, ok := layout.lookup(key)
		if !ok {
			unknown = append(unknown, h)
			continue
		}
		if prev, dup := cols[meta.Field]; dup {
			return nil, unknown, fmt.Errorf("%w: %q and %q both map to %s",
				ErrDuplicateColumn, headers[prev], h, meta.Field)
		}
		cols[meta.Field] = i
	}

	var missing []string
	for _, f := range layout {
		if _, ok := cols[f.Field]; f.Required && !ok {
			missing = append(missing, string(f.Field))
		}
	}
	if len(missing) > 0 {
		return nil, unknown, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	if strict && len(unknown) > 0 {
		return nil, unknown, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(unknown, ", "))
	}
	return cols, unknown, nil
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	return strings.Trim(s, "_")
}
