package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spektr-org/salaryscope/engine"
	"github.com/spektr-org/salaryscope/schema"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Records     int    `json:"records"`
	Fingerprint string `json:"fingerprint"`
}

type domainsResponse struct {
	TotalRecords int                    `json:"totalRecords"`
	Domains      schema.Domains         `json:"domains"`
	Dimensions   []schema.DimensionMeta `json:"dimensions"`
}

type viewResponse struct {
	Summary  string            `json:"summary"`
	KPICards []engine.KPICard  `json:"kpiCards"`
	View     *engine.ViewModel `json:"view"`
}

type chartsResponse struct {
	Selection engine.Selection     `json:"selection"`
	Charts    []engine.ChartConfig `json:"charts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.analyzer.Dataset()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Records:     ds.Len(),
		Fingerprint: ds.Fingerprint(),
	})
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	d := s.analyzer.Domains()
	writeJSON(w, http.StatusOK, domainsResponse{
		TotalRecords: s.analyzer.Dataset().Len(),
		Domains:      d,
		Dimensions:   d.Describe(),
	})
}

func (s *Server) handleViewQuery(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.evaluateQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(vm))
}

func (s *Server) handleViewBody(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	vm, err := s.analyzer.Evaluate(r.Context(), req.selection(s.analyzer.Domains()), opts...)
	if err != nil {
		s.evaluationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(vm))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.evaluateQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chartsResponse{Selection: vm.Selection, Charts: engine.BuildCharts(vm)})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.evaluateQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildTable(vm))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) evaluateQuery(w http.ResponseWriter, r *http.Request) (*engine.ViewModel, bool) {
	sel, opts, err := parseQuery(r.URL.Query(), s.analyzer.Domains())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	vm, err := s.analyzer.Evaluate(r.Context(), sel, opts...)
	if err != nil {
		s.evaluationFailed(w, r, err)
		return nil, false
	}
	return vm, true
}

func (s *Server) evaluationFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("evaluation failed")
	writeError(w, r, http.StatusServiceUnavailable, "evaluation failed")
}

func newViewResponse(vm *engine.ViewModel) viewResponse {
	return viewResponse{
		Summary:  engine.BuildSummary(vm),
		KPICards: engine.BuildKPICards(vm.KPIs),
		View:     vm,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}
