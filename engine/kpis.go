package engine

// ============================================================================
// KPIs — Scalar summaries over a record subset
// ============================================================================

// ComputeKPIs returns mean and max salary, record count and the modal role.
// An empty input yields the zero KPIs.
//
// ModalRole tie-break: among roles sharing the highest count, the one whose
// first occurrence comes earliest in records wins.
func ComputeKPIs(records []SalaryRecord) KPIs {
	if len(records) == 0 {
		return KPIs{}
	}

	var total float64
	maxSalary := records[0].SalaryUSD
	for _, r := range records {
		total += r.SalaryUSD
		if r.SalaryUSD > maxSalary {
			maxSalary = r.SalaryUSD
		}
	}

	return KPIs{
		MeanSalary:  total / float64(len(records)),
		MaxSalary:   maxSalary,
		RecordCount: len(records),
		ModalRole:   ModalValue(records, DimRole),
	}
}

// ModalValue returns the most frequent value of dimension d, breaking ties
// by first occurrence. Returns "" for empty input.
func ModalValue(records []SalaryRecord, d Dimension) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		v := r.Value(d)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
