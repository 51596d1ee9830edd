package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FIXTURES
// ============================================================================

func rec(year int, seniority, contract, size, role string, usd float64, remote, country string) SalaryRecord {
	return SalaryRecord{
		Year:             year,
		Seniority:        seniority,
		ContractType:     contract,
		CompanySize:      size,
		Role:             role,
		SalaryUSD:        usd,
		RemoteType:       remote,
		ResidenceCountry: country,
	}
}

var sampleRecords = []SalaryRecord{
	rec(2023, "senior", "integral", "media", "Data Scientist", 150000, "remoto", "USA"),
	rec(2023, "pleno", "integral", "grande", "Data Engineer", 120000, "presencial", "USA"),
	rec(2024, "senior", "integral", "media", "Data Scientist", 170000, "hibrido", "CAN"),
	rec(2024, "junior", "parcial", "pequena", "Data Analyst", 50000, "remoto", "BRA"),
	rec(2024, "executivo", "contrato", "grande", "Head of Data", 250000, "presencial", "USA"),
	rec(2025, "senior", "integral", "media", "Data Scientist", 90000, "remoto", "BRA"),
	rec(2025, "pleno", "freelancer", "pequena", "Data Analyst", 60000, "remoto", ""),
}

func selectAll(records []SalaryRecord) Selection {
	var sel Selection
	seen := map[string]bool{}
	for _, r := range records {
		for _, kv := range []struct {
			key string
			add func()
		}{
			{fmt.Sprint("y", r.Year), func() { sel.Years = append(sel.Years, r.Year) }},
			{"s" + r.Seniority, func() { sel.Seniorities = append(sel.Seniorities, r.Seniority) }},
			{"c" + r.ContractType, func() { sel.ContractTypes = append(sel.ContractTypes, r.ContractType) }},
			{"z" + r.CompanySize, func() { sel.CompanySizes = append(sel.CompanySizes, r.CompanySize) }},
		} {
			if !seen[kv.key] {
				seen[kv.key] = true
				kv.add()
			}
		}
	}
	return sel
}

// ============================================================================
// FILTER TESTS
// ============================================================================

func TestApplyFilters_AllSelectedReturnsEverything(t *testing.T) {
	out := ApplyFilters(sampleRecords, selectAll(sampleRecords))
	assert.Equal(t, sampleRecords, out)
}

func TestApplyFilters_AndAcrossOrWithin(t *testing.T) {
	sel := selectAll(sampleRecords)
	sel.Years = []int{2024, 2025}
	sel.Seniorities = []string{"senior", "junior"}

	out := ApplyFilters(sampleRecords, sel)
	require.Len(t, out, 3)
	for _, r := range out {
		assert.Contains(t, sel.Years, r.Year)
		assert.Contains(t, sel.Seniorities, r.Seniority)
	}
	assert.Equal(t, 170000.0, out[0].SalaryUSD, "input order is preserved")
	assert.Equal(t, 50000.0, out[1].SalaryUSD)
	assert.Equal(t, 90000.0, out[2].SalaryUSD)
}

func TestApplyFilters_EmptyDimensionEmptiesResult(t *testing.T) {
	cases := map[string]func(*Selection){
		"years":          func(s *Selection) { s.Years = nil },
		"seniorities":    func(s *Selection) { s.Seniorities = []string{} },
		"contract types": func(s *Selection) { s.ContractTypes = nil },
		"company sizes":  func(s *Selection) { s.CompanySizes = []string{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sel := selectAll(sampleRecords)
			mutate(&sel)
			out := ApplyFilters(sampleRecords, sel)
			assert.NotNil(t, out)
			assert.Empty(t, out)
		})
	}
}

func TestApplyFilters_UnknownValuesMatchNothing(t *testing.T) {
	sel := selectAll(sampleRecords)
	sel.Seniorities = []string{"intern", "SENIOR"}
	assert.Empty(t, ApplyFilters(sampleRecords, sel))
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	input := append([]SalaryRecord{}, sampleRecords...)
	sel := selectAll(input)
	sel.Years = []int{2023}

	out := ApplyFilters(input, sel)
	require.NotEmpty(t, out)
	out[0].Role = "changed"

	assert.Equal(t, sampleRecords, input)
}

func TestApplyFilters_SubsetProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	records := randomRecords(rng, 500)
	full := selectAll(records)

	for i := 0; i < 50; i++ {
		sel := Selection{
			Years:         pickInts(rng, full.Years),
			Seniorities:   pickStrings(rng, full.Seniorities),
			ContractTypes: pickStrings(rng, full.ContractTypes),
			CompanySizes:  pickStrings(rng, full.CompanySizes),
		}
		out := ApplyFilters(records, sel)
		assert.LessOrEqual(t, len(out), len(records))
		for _, r := range out {
			assert.Contains(t, sel.Years, r.Year)
			assert.Contains(t, sel.Seniorities, r.Seniority)
			assert.Contains(t, sel.ContractTypes, r.ContractType)
			assert.Contains(t, sel.CompanySizes, r.CompanySize)
		}
		if sel.HasEmptyDimension() {
			assert.Empty(t, out)
		}
	}
}

func TestApplyFiltersParallel_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := randomRecords(rng, 20000)
	sel := selectAll(records)
	sel.Years = sel.Years[:2]
	sel.Seniorities = sel.Seniorities[1:]

	want := ApplyFilters(records, sel)
	for _, workers := range []int{0, 1, 3, 8} {
		got := ApplyFiltersParallel(records, sel, workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

// ============================================================================
// KPI TESTS
// ============================================================================

func TestComputeKPIs_Empty(t *testing.T) {
	assert.Equal(t, KPIs{MeanSalary: 0, MaxSalary: 0, RecordCount: 0, ModalRole: ""}, ComputeKPIs(nil))
	assert.Equal(t, KPIs{}, ComputeKPIs([]SalaryRecord{}))
}

func TestComputeKPIs_ConstantSalary(t *testing.T) {
	records := []SalaryRecord{
		{Role: "A", SalaryUSD: 75000},
		{Role: "B", SalaryUSD: 75000},
		{Role: "C", SalaryUSD: 75000},
	}
	k := ComputeKPIs(records)
	assert.Equal(t, 75000.0, k.MeanSalary)
	assert.Equal(t, 75000.0, k.MaxSalary)
	assert.Equal(t, 3, k.RecordCount)
}

func TestComputeKPIs_WorkedExample(t *testing.T) {
	records := []SalaryRecord{
		{Role: "A", SalaryUSD: 100, ResidenceCountry: "USA"},
		{Role: "A", SalaryUSD: 200, ResidenceCountry: "USA"},
		{Role: "B", SalaryUSD: 300, ResidenceCountry: "BRA"},
	}
	k := ComputeKPIs(records)
	assert.Equal(t, KPIs{MeanSalary: 200, MaxSalary: 300, RecordCount: 3, ModalRole: "A"}, k)
	assert.Equal(t, map[string]float64{"USA": 150}, CountryMeanForRole(records, "A"))
}

func TestComputeKPIs_ModalRoleFirstEncounteredWins(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  string
	}{
		{"outright winner", []string{"B", "A", "A"}, "A"},
		{"two-way tie", []string{"B", "A", "A", "B"}, "B"},
		{"tie decided by first occurrence not last", []string{"C", "A", "C", "A", "B"}, "C"},
		{"all distinct", []string{"Z", "Y", "X"}, "Z"},
		{"late tie does not displace", []string{"A", "B", "B", "A", "C", "C"}, "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]SalaryRecord, len(tc.roles))
			for i, r := range tc.roles {
				records[i] = SalaryRecord{Role: r, SalaryUSD: 1}
			}
			assert.Equal(t, tc.want, ComputeKPIs(records).ModalRole)
		})
	}
}

// ============================================================================
// AGGREGATOR TESTS
// ============================================================================

func TestTopRolesByMeanSalary_OrderAndLimit(t *testing.T) {
	top := TopRolesByMeanSalary(sampleRecords, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Data Scientist", top[0].Role)
	assert.InDelta(t, 136666.67, top[0].MeanSalary, 0.01)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, "Head of Data", top[1].Role, "largest mean comes last")
}

func TestTopRolesByMeanSalary_FewerRolesThanK(t *testing.T) {
	top := TopRolesByMeanSalary(sampleRecords, 10)
	require.Len(t, top, 4)
	for i := 1; i < len(top); i++ {
		assert.LessOrEqual(t, top[i-1].MeanSalary, top[i].MeanSalary)
	}
}

func TestTopRolesByMeanSalary_TiesAlphabetical(t *testing.T) {
	records := []SalaryRecord{
		{Role: "Zeta", SalaryUSD: 100},
		{Role: "Beta", SalaryUSD: 100},
		{Role: "Alpha", SalaryUSD: 100},
		{Role: "Low", SalaryUSD: 10},
	}
	top := TopRolesByMeanSalary(records, 2)
	require.Len(t, top, 2)
	assert.Equal(t, []string{"Alpha", "Beta"}, []string{top[0].Role, top[1].Role})
}

func TestTopRolesByMeanSalary_Degenerate(t *testing.T) {
	assert.Empty(t, TopRolesByMeanSalary(nil, 10))
	assert.Empty(t, TopRolesByMeanSalary(sampleRecords, 0))
	assert.Empty(t, TopRolesByMeanSalary(sampleRecords, -3))
}

func TestSalaryHistogram_Empty(t *testing.T) {
	h := SalaryHistogram(nil, 30)
	assert.NotNil(t, h)
	assert.Empty(t, h)
	assert.Empty(t, SalaryHistogram(sampleRecords, 0))
}

func TestSalaryHistogram_IdenticalSalaries(t *testing.T) {
	records := []SalaryRecord{{SalaryUSD: 5000}, {SalaryUSD: 5000}, {SalaryUSD: 5000}}
	h := SalaryHistogram(records, 30)
	full := 0
	for _, b := range h {
		if b.Count == len(records) {
			full++
		}
	}
	assert.Equal(t, 1, full)
}

func TestSalaryHistogram_Boundaries(t *testing.T) {
	// Range [0, 100] in 4 bins of width 25.
	records := []SalaryRecord{
		{SalaryUSD: 0}, {SalaryUSD: 25}, {SalaryUSD: 26},
		{SalaryUSD: 50}, {SalaryUSD: 75}, {SalaryUSD: 100},
	}
	h := SalaryHistogram(records, 4)
	require.Len(t, h, 4)

	assert.Equal(t, HistogramBin{LowerBound: 0, UpperBound: 25, Count: 2}, h[0], "first bin closed on both ends")
	assert.Equal(t, HistogramBin{LowerBound: 25, UpperBound: 50, Count: 2}, h[1])
	assert.Equal(t, HistogramBin{LowerBound: 50, UpperBound: 75, Count: 1}, h[2])
	assert.Equal(t, HistogramBin{LowerBound: 75, UpperBound: 100, Count: 1}, h[3], "max lands in last bin")
}

func TestSalaryHistogram_UpperBoundCountedInItsBin(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		lo := 20000 + rng.Float64()*100000
		hi := lo + 1 + rng.Float64()*200000
		bins := 2 + rng.Intn(40)
		records := []SalaryRecord{{SalaryUSD: lo}, {SalaryUSD: hi}}
		ref := SalaryHistogram(records, bins)
		require.Len(t, ref, bins)

		for i := 0; i < bins-1; i++ {
			v := ref[i].UpperBound
			h := SalaryHistogram(append(append([]SalaryRecord{}, records...), SalaryRecord{SalaryUSD: v}), bins)
			require.Len(t, h, bins)
			for j := range h {
				want := ref[j].Count
				if j == i {
					want++
				}
				assert.Equal(t, want, h[j].Count,
					"v=%v (upper bound of bin %d) bins=%d lo=%v hi=%v", v, i, bins, lo, hi)
			}
		}
	}
}

func TestSalaryHistogram_CountsSumToInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	records := randomRecords(rng, 1000)
	h := SalaryHistogram(records, 30)
	require.Len(t, h, 30)

	total := 0
	for i, b := range h {
		total += b.Count
		assert.Less(t, b.LowerBound, b.UpperBound)
		if i > 0 {
			assert.InDelta(t, h[i-1].UpperBound, b.LowerBound, 1e-6)
		}
	}
	assert.Equal(t, len(records), total)
}

func TestCategoryDistribution(t *testing.T) {
	dist := CategoryDistribution(sampleRecords, DimRemoteType)
	assert.Equal(t, []CategoryCount{
		{Value: "remoto", Count: 4},
		{Value: "presencial", Count: 2},
		{Value: "hibrido", Count: 1},
	}, dist)
}

func TestCategoryDistribution_TiesNaturalOrder(t *testing.T) {
	records := []SalaryRecord{{Year: 2025}, {Year: 999}, {Year: 2024}}
	dist := CategoryDistribution(records, DimYear)
	assert.Equal(t, []string{"999", "2024", "2025"}, []string{dist[0].Value, dist[1].Value, dist[2].Value})

	records = []SalaryRecord{{Seniority: "senior"}, {Seniority: "junior"}, {Seniority: "pleno"}}
	dist = CategoryDistribution(records, DimSeniority)
	assert.Equal(t, []string{"junior", "pleno", "senior"}, []string{dist[0].Value, dist[1].Value, dist[2].Value})
}

func TestCategoryDistribution_SumsAndOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	records := randomRecords(rng, 800)
	for _, d := range AllDimensions {
		dist := CategoryDistribution(records, d)
		total := 0
		for i, c := range dist {
			total += c.Count
			if i > 0 {
				assert.GreaterOrEqual(t, dist[i-1].Count, c.Count, "dimension %s", d)
			}
		}
		assert.Equal(t, len(records), total, "dimension %s", d)
	}
}

func TestCategoryDistribution_UnknownDimension(t *testing.T) {
	assert.Empty(t, CategoryDistribution(sampleRecords, Dimension("salary")))
}

func TestCountryMeanForRole(t *testing.T) {
	means := CountryMeanForRole(sampleRecords, "Data Scientist")
	assert.Equal(t, map[string]float64{"USA": 150000, "CAN": 170000, "BRA": 90000}, means)

	analysts := CountryMeanForRole(sampleRecords, "Data Analyst")
	assert.Equal(t, map[string]float64{"BRA": 50000}, analysts, "records without a country are excluded")

	missing := CountryMeanForRole(sampleRecords, "Astronaut")
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$0", FormatUSD(0))
	assert.Equal(t, "$123,457", FormatUSD(123456.7))
	assert.Equal(t, "-$1,000", FormatUSD(-1000))
	assert.Equal(t, "1,234,567", FormatInt(1234567))
	assert.Equal(t, "Company Size", LabelForDimension(DimCompanySize))
}

// ============================================================================
// HELPERS
// ============================================================================

func randomRecords(rng *rand.Rand, n int) []SalaryRecord {
	seniorities := []string{"junior", "pleno", "senior", "executivo"}
	contracts := []string{"integral", "parcial", "contrato", "freelancer"}
	sizes := []string{"pequena", "media", "grande"}
	roles := []string{"Data Scientist", "Data Engineer", "Data Analyst", "ML Engineer", "Head of Data"}
	remotes := []string{"presencial", "hibrido", "remoto"}
	countries := []string{"USA", "BRA", "CAN", "DEU", ""}

	out := make([]SalaryRecord, n)
	for i := range out {
		out[i] = SalaryRecord{
			Year:             2020 + rng.Intn(6),
			Seniority:        seniorities[rng.Intn(len(seniorities))],
			ContractType:     contracts[rng.Intn(len(contracts))],
			CompanySize:      sizes[rng.Intn(len(sizes))],
			Role:             roles[rng.Intn(len(roles))],
			SalaryUSD:        float64(15000 + rng.Intn(400000)),
			RemoteType:       remotes[rng.Intn(len(remotes))],
			ResidenceCountry: countries[rng.Intn(len(countries))],
		}
	}
	return out
}

func pickInts(rng *rand.Rand, values []int) []int {
	var out []int
	for _, v := range values {
		if rng.Intn(3) > 0 {
			out = append(out, v)
		}
	}
	return out
}

func pickStrings(rng *rand.Rand, values []string) []string {
	var out []string
	for _, v := range values {
		if rng.Intn(3) > 0 {
			out = append(out, v)
		}
	}
	return out
}
