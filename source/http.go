package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/spektr-org/salaryscope/engine"
)

// maxBodyBytes bounds a downloaded dataset.
const maxBodyBytes = 256 << 20

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	Client      *http.Client
	Timeout     time.Duration
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenFor     time.Duration // how long the breaker stays open
	CSV         CSVOptions
}

// HTTPSource downloads a CSV over HTTP(S). Repeated failures trip a circuit
// breaker so callers fail fast instead of hammering a dead endpoint.
type HTTPSource struct {
	url     string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	csv     CSVOptions
}

// NewHTTPSource creates a source for url.
func NewHTTPSource(url string, opts HTTPOptions) *HTTPSource {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 3
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}
	if opts.CSV.Layout == nil {
		opts.CSV.Layout = DefaultCSVOptions().Layout
	}

	maxFailures := opts.MaxFailures
	log := opts.CSV.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dataset:" + url,
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("dataset fetch circuit state changed")
		},
	})

	return &HTTPSource{
		url:     url,
		client:  opts.Client,
		timeout: opts.Timeout,
		breaker: breaker,
		csv:     opts.CSV,
	}
}

// Load downloads and parses the dataset.
func (s *HTTPSource) Load(ctx context.Context) ([]engine.SalaryRecord, LoadReport, error) {
	body, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, LoadReport{}, err
	}
	return ParseCSV(bytes.NewReader(body.([]byte)), s.csv)
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("dataset exceeds %d bytes", maxBodyBytes)
	}
	return data, nil
}

// Describe names the source for logs.
func (s *HTTPSource) Describe() string { return "url:" + s.url }
