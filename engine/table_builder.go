package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Detailed filtered records as rows
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

var recordColumns = []Column{
	{Key: string(DimYear), Label: "Year", Type: "number", Align: "right"},
	{Key: string(DimSeniority), Label: "Seniority", Type: "text", Align: "left"},
	{Key: string(DimContractType), Label: "Contract Type", Type: "text", Align: "left"},
	{Key: string(DimCompanySize), Label: "Company Size", Type: "text", Align: "left"},
	{Key: string(DimRole), Label: "Role", Type: "text", Align: "left"},
	{Key: "salary_usd", Label: "Salary (USD)", Type: "currency", Align: "right"},
	{Key: string(DimRemoteType), Label: "Remote Type", Type: "text", Align: "left"},
	{Key: string(DimResidenceCountry), Label: "Residence", Type: "text", Align: "left"},
}

// BuildTable produces one row per filtered record, in filter order.
func BuildTable(vm *ViewModel) *TableData {
	rows := make([][]string, 0, len(vm.Records))
	for _, r := range vm.Records {
		rows = append(rows, RecordRow(r))
	}

	return &TableData{
		Title:   "Detailed data",
		Columns: append([]Column{}, recordColumns...),
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("%s of %s records", FormatInt(len(vm.Records)), FormatInt(vm.TotalRecords)),
			Values: map[string]string{
				"salary_usd": FormatUSD(vm.KPIs.MeanSalary) + " mean",
			},
		},
	}
}

// RecordHeader returns the column keys in RecordRow order.
func RecordHeader() []string {
	keys := make([]string, len(recordColumns))
	for i, c := range recordColumns {
		keys[i] = c.Key
	}
	return keys
}

// RecordRow renders a record as strings in RecordHeader order.
func RecordRow(r SalaryRecord) []string {
	return []string{
		strconv.Itoa(r.Year),
		r.Seniority,
		r.ContractType,
		r.CompanySize,
		r.Role,
		strconv.FormatFloat(r.SalaryUSD, 'f', -1, 64),
		r.RemoteType,
		r.ResidenceCountry,
	}
}
