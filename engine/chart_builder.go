package engine

import (
	"fmt"
)

// ============================================================================
// CHART BUILDER — Render-ready chart descriptions from a ViewModel
// ============================================================================
// Describes what to draw (type, titles, labelled points). Drawing, layout
// and styling belong to whoever consumes the description.
// ============================================================================

// Chart types emitted by BuildCharts.
const (
	ChartHorizontalBar = "horizontal_bar"
	ChartHistogram     = "histogram"
	ChartDonut         = "donut"
	ChartChoropleth    = "choropleth"
)

// ChartConfig describes one chart.
type ChartConfig struct {
	ID        string       `json:"id"`
	ChartType string       `json:"chartType"`
	Title     string       `json:"title"`
	XAxis     string       `json:"xAxis,omitempty"`
	YAxis     string       `json:"yAxis,omitempty"`
	Points    []ChartPoint `json:"points"`
	Empty     bool         `json:"empty"`
	Message   string       `json:"message,omitempty"`
}

// ChartPoint is a single labelled value. For histograms Label is the bin
// range; for choropleths it is the ISO-3 country code.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BuildCharts returns the four dashboard charts for vm, in display order.
// When vm matched no records every chart is marked Empty with a message.
func BuildCharts(vm *ViewModel) []ChartConfig {
	charts := []ChartConfig{
		buildTopRolesChart(vm),
		buildHistogramChart(vm),
		buildDistributionChart(vm),
		buildCountryChart(vm),
	}

	if vm.IsEmpty() {
		for i := range charts {
			charts[i].Empty = true
			charts[i].Points = []ChartPoint{}
			charts[i].Message = "No data to display for the current filters."
		}
	}
	return charts
}

func buildTopRolesChart(vm *ViewModel) ChartConfig {
	points := make([]ChartPoint, 0, len(vm.TopRoles))
	for _, r := range vm.TopRoles {
		points = append(points, ChartPoint{Label: r.Role, Value: r.MeanSalary})
	}
	return ChartConfig{
		ID:        "top_roles",
		ChartType: ChartHorizontalBar,
		Title:     fmt.Sprintf("Top %d roles by mean salary", vm.TopN),
		XAxis:     "Mean annual salary (USD)",
		Points:    points,
	}
}

func buildHistogramChart(vm *ViewModel) ChartConfig {
	points := make([]ChartPoint, 0, len(vm.Histogram))
	for _, b := range vm.Histogram {
		points = append(points, ChartPoint{
			Label: fmt.Sprintf("%s–%s", FormatUSD(b.LowerBound), FormatUSD(b.UpperBound)),
			Value: float64(b.Count),
		})
	}
	return ChartConfig{
		ID:        "salary_histogram",
		ChartType: ChartHistogram,
		Title:     "Annual salary distribution",
		XAxis:     "Salary range (USD)",
		YAxis:     "Count",
		Points:    points,
	}
}

func buildDistributionChart(vm *ViewModel) ChartConfig {
	points := make([]ChartPoint, 0, len(vm.Distribution))
	for _, c := range vm.Distribution {
		points = append(points, ChartPoint{Label: c.Value, Value: float64(c.Count)})
	}
	return ChartConfig{
		ID:        "distribution",
		ChartType: ChartDonut,
		Title:     fmt.Sprintf("Share by %s", LabelForDimension(vm.DistributionDimension)),
		Points:    points,
	}
}

func buildCountryChart(vm *ViewModel) ChartConfig {
	means := SortedCountryMeans(vm.CountryMeans)
	points := make([]ChartPoint, 0, len(means))
	for _, m := range means {
		points = append(points, ChartPoint{Label: m.Country, Value: m.MeanSalary})
	}
	chart := ChartConfig{
		ID:        "country_means",
		ChartType: ChartChoropleth,
		Title:     fmt.Sprintf("Mean %s salary by country", vm.FocusRole),
		YAxis:     "Mean salary (USD)",
		Points:    points,
	}
	if len(points) == 0 && !vm.IsEmpty() {
		chart.Empty = true
		chart.Message = fmt.Sprintf("No %s records in the current selection.", vm.FocusRole)
	}
	return chart
}
