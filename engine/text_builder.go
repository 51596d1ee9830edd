package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — KPI cards and a one-line summary
// ============================================================================

// KPICard is one formatted headline metric.
type KPICard struct {
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
}

// BuildKPICards formats the four headline metrics. Empty selections show
// zeros and a blank modal role.
func BuildKPICards(k KPIs) []KPICard {
	return []KPICard{
		{Label: "Mean salary", Value: FormatUSD(k.MeanSalary), RawValue: k.MeanSalary},
		{Label: "Max salary", Value: FormatUSD(k.MaxSalary), RawValue: k.MaxSalary},
		{Label: "Total records", Value: FormatInt(k.RecordCount), RawValue: float64(k.RecordCount)},
		{Label: "Most frequent role", Value: k.ModalRole},
	}
}

// BuildSummary renders a short human-readable description of vm.
func BuildSummary(vm *ViewModel) string {
	if vm.IsEmpty() {
		return "No records match the current filters."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s records selected.", FormatInt(vm.KPIs.RecordCount), FormatInt(vm.TotalRecords))
	fmt.Fprintf(&b, " Mean salary %s, max %s.", FormatUSD(vm.KPIs.MeanSalary), FormatUSD(vm.KPIs.MaxSalary))
	if vm.KPIs.ModalRole != "" {
		fmt.Fprintf(&b, " Most frequent role: %s.", vm.KPIs.ModalRole)
	}
	if n := len(vm.TopRoles); n > 0 {
		top := vm.TopRoles[n-1]
		fmt.Fprintf(&b, " Best paid role: %s (%s).", top.Role, FormatUSD(top.MeanSalary))
	}
	return b.String()
}
