package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

const portugueseCSV = `ano,senioridade,contrato,tamanho_empresa,cargo,usd,remoto,residencia_iso3
2024,senior,integral,media,Data Scientist,150000,remoto,USA
2024,pleno,integral,grande,Data Engineer,120000.50,hibrido,bra
2023.0,junior,freelancer,pequena,Data Analyst,45000,presencial,
2025,executivo,integral,grande,Data Scientist,210000,remoto,Brazil
`

func TestParseCSV_Portuguese(t *testing.T) {
	records, report, err := ParseCSV(strings.NewReader(portugueseCSV), DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.Loaded)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.InvalidCountries)

	require.Len(t, records, 4)
	assert.Equal(t, engine.SalaryRecord{
		Year: 2024, Seniority: "senior", ContractType: "integral", CompanySize: "media",
		Role: "Data Scientist", SalaryUSD: 150000, RemoteType: "remoto", ResidenceCountry: "USA",
	}, records[0])
	assert.Equal(t, 120000.50, records[1].SalaryUSD)
	assert.Equal(t, "BRA", records[1].ResidenceCountry, "codes are upper-cased")
	assert.Equal(t, 2023, records[2].Year)
	assert.Empty(t, records[2].ResidenceCountry)
	assert.Empty(t, records[3].ResidenceCountry, "non ISO3 values are dropped")
}

func TestParseCSV_SkipsMalformedRows(t *testing.T) {
	input := `work_year,experience_level,employment_type,company_size,job_title,salary_in_usd,remote,extra
2024,SE,FT,M,Data Scientist,100000,remote,x
abc,SE,FT,M,Data Scientist,100000,remote,x
2024,SE,FT,M,Data Scientist,-5,remote,x
2024,SE,FT,M,Data Scientist,NaN,remote,x
2024,,FT,M,Data Scientist,90000,remote,x
2024,MI,FT,L
2024,MI,PT,S,ML Engineer,80000,onsite,y
`
	records, report, err := ParseCSV(strings.NewReader(input), DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 5, report.Skipped)
	assert.Equal(t, []string{"extra"}, report.UnknownColumns)
	require.Len(t, records, 2)
	assert.Equal(t, "ML Engineer", records[1].Role)
}

func TestParseCSV_HeaderErrors(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""), DefaultCSVOptions())
	assert.Error(t, err)

	_, _, err = ParseCSV(strings.NewReader("ano,senioridade\n2024,senior\n"), DefaultCSVOptions())
	assert.ErrorIs(t, err, schema.ErrMissingColumn)

	opts := DefaultCSVOptions()
	opts.Strict = true
	_, _, err = ParseCSV(strings.NewReader(strings.Replace(portugueseCSV, "residencia_iso3", "notes", 1)), opts)
	assert.ErrorIs(t, err, schema.ErrUnknownColumn)
}

func TestNormalizeCountry(t *testing.T) {
	cases := []struct {
		in    string
		out   string
		valid bool
	}{
		{"USA", "USA", true},
		{" deu ", "DEU", true},
		{"", "", true},
		{"US", "", false},
		{"U5A", "", false},
		{"Brazil", "", false},
	}
	for _, c := range cases {
		out, ok := NormalizeCountry(c.in)
		assert.Equal(t, c.out, out, c.in)
		assert.Equal(t, c.valid, ok, c.in)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salaries.csv")
	require.NoError(t, os.WriteFile(path, []byte(portugueseCSV), 0o600))

	src := &FileSource{Path: path, Options: DefaultCSVOptions()}
	assert.Equal(t, "file:"+path, src.Describe())

	ds, report, err := LoadDataset(context.Background(), src, DefaultCSVOptions().Logger)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 4, report.Loaded)

	_, _, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}).Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
