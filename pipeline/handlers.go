// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"axonflow/insights/analyzer"
	"axonflow/insights/pipeline/intent"
	"axonflow/insights/shared/logger"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	orch    *Orchestrator
	metrics *Metrics
	log     *logger.Logger
}

// NewServer creates the HTTP surface around an orchestrator.
func NewServer(orch *Orchestrator, metrics *Metrics) *Server {
	return &Server{
		orch:    orch,
		metrics: metrics,
		log:     logger.New("http"),
	}
}

// RegisterRoutes attaches all pipeline endpoints to the router.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ask", s.handleAsk).Methods("POST")
	r.HandleFunc("/query", s.handleQuery).Methods("POST")
	r.HandleFunc("/class_analysis", s.handleClassAnalysis).Methods("POST")
	r.HandleFunc("/analyze/{kind:summary|trend|risk}", s.handleAnalyze).Methods("POST")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

type askRequest struct {
	Input string `json:"input"`
}

type queryRequest struct {
	SubjectID string   `json:"subject_id"`
	Fields    []string `json:"fields"`
}

type classAnalysisRequest struct {
	Limit          int  `json:"limit"`
	TopN           int  `json:"top_n"`
	Page           int  `json:"page"`
	AtRiskOnly     bool `json:"at_risk_only"`
	GradeThreshold *int `json:"grade_threshold"`
}

type analyzeRequest struct {
	SubjectID string `json:"subject_id"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
	ParsedBy  string `json:"parsed_by,omitempty"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Input == "" {
		s.writeBadBody(w, requestID)
		return
	}

	resp, err := s.orch.Ask(r.Context(), requestID, req.Input)
	if err == nil && resp.ParsedBy == intent.ParsedByHeuristic {
		s.metrics.RecordHeuristicFallback()
	}
	s.finish(w, requestID, "ask", start, resp, err)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	start := time.Now()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadBody(w, requestID)
		return
	}

	desc := intent.Descriptor{
		QueryType: intent.KindQuery,
		SubjectID: req.SubjectID,
		Fields:    req.Fields,
		ParsedBy:  intent.ParsedByHeuristic,
	}
	resp, err := s.orch.Execute(r.Context(), requestID, desc)
	s.finish(w, requestID, "query", start, resp, err)
}

func (s *Server) handleClassAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	start := time.Now()

	var req classAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadBody(w, requestID)
		return
	}

	desc := intent.Descriptor{
		QueryType: intent.KindClass,
		Limit:     req.Limit,
		Options: analyzer.ClassOptions{
			TopN:           req.TopN,
			Page:           req.Page,
			AtRiskOnly:     req.AtRiskOnly,
			GradeThreshold: req.GradeThreshold,
		},
		ParsedBy: intent.ParsedByHeuristic,
	}
	resp, err := s.orch.Execute(r.Context(), requestID, desc)
	s.finish(w, requestID, "class_analysis", start, resp, err)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	start := time.Now()
	kind := intent.QueryKind(mux.Vars(r)["kind"])

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadBody(w, requestID)
		return
	}

	desc := intent.Descriptor{
		QueryType: kind,
		SubjectID: req.SubjectID,
		ParsedBy:  intent.ParsedByHeuristic,
	}
	resp, err := s.orch.Execute(r.Context(), requestID, desc)
	s.finish(w, requestID, string(kind), start, resp, err)
}

// handleHealth reports liveness and which components are wired. It never
// probes dependencies; the gateway's fixture fallback keeps the service
// answering even with the store down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "insights-pipeline",
		"components": map[string]bool{
			"gateway":    true,
			"cache":      true,
			"classifier": s.orch.resolver.ClassifierEnabled(),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// finish records metrics and writes either the response or the mapped error.
func (s *Server) finish(w http.ResponseWriter, requestID, kind string, start time.Time, resp *Response, err error) {
	latencyMS := time.Since(start).Milliseconds()
	s.metrics.RecordRequest(kind, latencyMS, err == nil)

	if err != nil {
		s.writeError(w, requestID, err)
		return
	}
	s.log.InfoWithDuration(requestID, "request completed", float64(latencyMS), map[string]interface{}{
		"query_type": string(resp.QueryType),
		"parsed_by":  resp.ParsedBy,
	})
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	kind := ClassifyError(err)

	status := http.StatusInternalServerError
	switch kind {
	case KindValidationError:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindRetryExhausted, KindGatewayError:
		status = http.StatusServiceUnavailable
	}

	body := errorResponse{
		Error:     err.Error(),
		Kind:      string(kind),
		RequestID: requestID,
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		body.Reason = vErr.Reason
	}
	var rErr *RetryExhaustedError
	if errors.As(err, &rErr) {
		body.ParsedBy = rErr.ParsedBy
	}

	s.log.Warn(requestID, "request failed", map[string]interface{}{
		"kind":   string(kind),
		"status": status,
		"error":  err.Error(),
	})
	writeJSON(w, status, body)
}

func (s *Server) writeBadBody(w http.ResponseWriter, requestID string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     "invalid request body",
		Kind:      string(KindValidationError),
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestIDFrom honors a caller-supplied X-Request-ID, otherwise mints one.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}
