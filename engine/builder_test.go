package engine

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ComposesAllResults(t *testing.T) {
	sel := selectAll(sampleRecords)
	vm := Build(sampleRecords, sel)

	assert.Equal(t, len(sampleRecords), vm.TotalRecords)
	assert.Equal(t, sampleRecords, vm.Records)
	assert.Equal(t, ComputeKPIs(sampleRecords), vm.KPIs)
	assert.Equal(t, TopRolesByMeanSalary(sampleRecords, DefaultTopN), vm.TopRoles)
	assert.Equal(t, SalaryHistogram(sampleRecords, DefaultBins), vm.Histogram)
	assert.Equal(t, CategoryDistribution(sampleRecords, DimRemoteType), vm.Distribution)
	assert.Equal(t, CountryMeanForRole(sampleRecords, DefaultFocusRole), vm.CountryMeans)

	assert.Equal(t, DefaultTopN, vm.TopN)
	assert.Equal(t, DefaultBins, vm.Bins)
	assert.Equal(t, DefaultFocusRole, vm.FocusRole)
	assert.Equal(t, DimRemoteType, vm.DistributionDimension)
}

func TestBuild_Options(t *testing.T) {
	sel := selectAll(sampleRecords)
	vm := Build(sampleRecords, sel,
		WithTopN(2),
		WithBins(5),
		WithFocusRole("Data Analyst"),
		WithDistributionDimension(DimSeniority),
		WithDistributionDimension(Dimension("bogus")),
	)

	assert.Len(t, vm.TopRoles, 2)
	assert.Len(t, vm.Histogram, 5)
	assert.Equal(t, map[string]float64{"BRA": 50000}, vm.CountryMeans)
	assert.Equal(t, DimSeniority, vm.DistributionDimension, "invalid dimension is ignored")
	assert.Equal(t, "senior", vm.Distribution[0].Value)
}

func TestBuild_EmptySelection(t *testing.T) {
	vm := Build(sampleRecords, Selection{})

	assert.True(t, vm.IsEmpty())
	assert.Equal(t, KPIs{}, vm.KPIs)
	assert.Empty(t, vm.TopRoles)
	assert.Empty(t, vm.Histogram)
	assert.Empty(t, vm.Distribution)
	assert.NotNil(t, vm.CountryMeans)
	assert.Empty(t, vm.CountryMeans)
	assert.Equal(t, len(sampleRecords), vm.TotalRecords)
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	records := randomRecords(rng, 12000)
	sel := selectAll(records)
	sel.CompanySizes = sel.CompanySizes[:2]

	want := Build(records, sel)
	got := Build(records, sel, WithParallel(6))
	assert.Equal(t, want, got)
}

func TestBuild_OwnsItsResult(t *testing.T) {
	input := append([]SalaryRecord{}, sampleRecords...)
	sel := selectAll(input)
	vm := Build(input, sel)

	vm.Records[0].SalaryUSD = -1
	vm.Selection.Years[0] = 1900
	assert.Equal(t, sampleRecords, input)
	assert.NotEqual(t, 1900, sel.Years[0])
}

func TestBuild_ConcurrentEvaluations(t *testing.T) {
	ds := NewDataset(sampleRecords)
	full := selectAll(sampleRecords)

	var wg sync.WaitGroup
	results := make([]*ViewModel, 3)
	for i, year := range []int{2023, 2024, 2025} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sel := full
			sel.Years = []int{year}
			results[i] = BuildDataset(ds, sel, WithParallel(2))
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, results[0].KPIs.RecordCount)
	assert.Equal(t, 3, results[1].KPIs.RecordCount)
	assert.Equal(t, 2, results[2].KPIs.RecordCount)
	assert.Equal(t, sampleRecords, ds.Records())
}

func TestDataset_Fingerprint(t *testing.T) {
	a := NewDataset(sampleRecords)
	b := NewDataset(append([]SalaryRecord{}, sampleRecords...))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	changed := append([]SalaryRecord{}, sampleRecords...)
	changed[3].SalaryUSD++
	assert.NotEqual(t, a.Fingerprint(), NewDataset(changed).Fingerprint())
	assert.Equal(t, len(sampleRecords), a.Len())
	assert.Equal(t, sampleRecords[2], a.At(2))
}

func TestSelection_Canonical(t *testing.T) {
	a := Selection{
		Years:         []int{2025, 2023, 2025},
		Seniorities:   []string{"senior", "junior"},
		ContractTypes: []string{"integral"},
		CompanySizes:  []string{"media", "grande"},
	}
	b := Selection{
		Years:         []int{2023, 2025},
		Seniorities:   []string{"junior", "senior", "junior"},
		ContractTypes: []string{"integral"},
		CompanySizes:  []string{"grande", "media"},
	}
	assert.Equal(t, a.Canonical(), b.Canonical())

	b.CompanySizes = []string{"grande"}
	assert.NotEqual(t, a.Canonical(), b.Canonical())
	assert.NotEqual(t, Selection{Seniorities: []string{"a,b"}}.Canonical(),
		Selection{Seniorities: []string{"a", "b"}}.Canonical())
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension("Company-Size")
	require.NoError(t, err)
	assert.Equal(t, DimCompanySize, d)

	_, err = ParseDimension("salary")
	assert.Error(t, err)
}

func TestBuildCharts(t *testing.T) {
	vm := Build(sampleRecords, selectAll(sampleRecords))
	charts := BuildCharts(vm)
	require.Len(t, charts, 4)

	assert.Equal(t, ChartHorizontalBar, charts[0].ChartType)
	assert.Equal(t, "Head of Data", charts[0].Points[len(charts[0].Points)-1].Label)
	assert.Equal(t, ChartHistogram, charts[1].ChartType)
	assert.Len(t, charts[1].Points, DefaultBins)
	assert.Equal(t, ChartDonut, charts[2].ChartType)
	assert.Equal(t, ChartChoropleth, charts[3].ChartType)
	assert.Equal(t, []ChartPoint{
		{Label: "BRA", Value: 90000},
		{Label: "CAN", Value: 170000},
		{Label: "USA", Value: 150000},
	}, charts[3].Points)
	for _, c := range charts {
		assert.False(t, c.Empty)
	}
}

func TestBuildCharts_Empty(t *testing.T) {
	charts := BuildCharts(Build(sampleRecords, Selection{}))
	for _, c := range charts {
		assert.True(t, c.Empty)
		assert.NotEmpty(t, c.Message)
		assert.Empty(t, c.Points)
	}
}

func TestBuildCharts_FocusRoleAbsent(t *testing.T) {
	charts := BuildCharts(Build(sampleRecords, selectAll(sampleRecords), WithFocusRole("Astronaut")))
	assert.True(t, charts[3].Empty)
	assert.False(t, charts[0].Empty)
}

func TestBuildTable(t *testing.T) {
	sel := selectAll(sampleRecords)
	sel.Years = []int{2025}
	table := BuildTable(Build(sampleRecords, sel))

	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Columns, len(RecordHeader()))
	assert.Equal(t, []string{"2025", "senior", "integral", "media", "Data Scientist", "90000", "remoto", "BRA"}, table.Rows[0])
	assert.Equal(t, "2 of 7 records", table.Summary.Label)
}

func TestBuildKPICardsAndSummary(t *testing.T) {
	cards := BuildKPICards(KPIs{MeanSalary: 123456.4, MaxSalary: 250000, RecordCount: 1500, ModalRole: "Data Scientist"})
	require.Len(t, cards, 4)
	assert.Equal(t, "$123,456", cards[0].Value)
	assert.Equal(t, "$250,000", cards[1].Value)
	assert.Equal(t, "1,500", cards[2].Value)
	assert.Equal(t, "Data Scientist", cards[3].Value)

	assert.Equal(t, "No records match the current filters.", BuildSummary(Build(sampleRecords, Selection{})))
	assert.Contains(t, BuildSummary(Build(sampleRecords, selectAll(sampleRecords))), "7 of 7 records selected.")
}
