package source

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/spektr-org/salaryscope/engine"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads records from a table whose columns are named after
// the schema fields (year, seniority, contract_type, company_size, role,
// salary_usd, remote_type, residence_country).
type PostgresSource struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
	log     zerolog.Logger
}

// salaryRow mirrors one table row; residence_country may be NULL.
type salaryRow struct {
	Year             int            `db:"year"`
	Seniority        string         `db:"seniority"`
	ContractType     string         `db:"contract_type"`
	CompanySize      string         `db:"company_size"`
	Role             string         `db:"role"`
	SalaryUSD        float64        `db:"salary_usd"`
	RemoteType       string         `db:"remote_type"`
	ResidenceCountry sql.NullString `db:"residence_country"`
}

// OpenPostgres connects using a lib/pq DSN.
func OpenPostgres(dsn, table string, timeout time.Duration, log zerolog.Logger) (*PostgresSource, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	src, err := NewPostgresSource(db, table, timeout, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

// NewPostgresSource wraps an existing connection.
func NewPostgresSource(db *sqlx.DB, table string, timeout time.Duration, log zerolog.Logger) (*PostgresSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSource{db: db, table: table, timeout: timeout, log: log}, nil
}

// Load selects every row. Rows with a negative salary or a blank category
// are skipped and counted, matching the CSV path.
func (s *PostgresSource) Load(ctx context.Context) ([]engine.SalaryRecord, LoadReport, error) {
	var report LoadReport
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	query := fmt.Sprintf(`SELECT year, seniority, contract_type, company_size, role,
       salary_usd, remote_type, residence_country
FROM %s`, s.table)

	var rows []salaryRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, report, fmt.Errorf("query %s: %w", s.table, err)
	}

	records := make([]engine.SalaryRecord, 0, len(rows))
	for i, row := range rows {
		report.Rows++
		if row.SalaryUSD < 0 || math.IsNaN(row.SalaryUSD) || row.Seniority == "" || row.ContractType == "" ||
			row.CompanySize == "" || row.Role == "" || row.RemoteType == "" {
			report.Skipped++
			s.log.Warn().Int("row", i+1).Msg("skipping malformed database row")
			continue
		}

		country, ok := NormalizeCountry(row.ResidenceCountry.String)
		if !ok {
			report.InvalidCountries++
		}
		records = append(records, engine.SalaryRecord{
			Year:             row.Year,
			Seniority:        row.Seniority,
			ContractType:     row.ContractType,
			CompanySize:      row.CompanySize,
			Role:             row.Role,
			SalaryUSD:        row.SalaryUSD,
			RemoteType:       row.RemoteType,
			ResidenceCountry: country,
		})
	}

	report.Loaded = len(records)
	return records, report, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error { return s.db.Close() }

// Describe names the source for logs.
func (s *PostgresSource) Describe() string { return "postgres:" + s.table }
