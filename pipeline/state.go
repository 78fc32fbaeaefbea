// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package pipeline drives one request from intent resolution through
// validation, routing, data access and analysis to a JSON response.
package pipeline

import (
	"axonflow/insights/analyzer"
	"axonflow/insights/gateway/store"
	"axonflow/insights/pipeline/intent"
)

// State is the per-request envelope. It is private to one request and
// mutated only by the orchestrator and router; it is never persisted.
type State struct {
	RequestID  string
	Descriptor intent.Descriptor

	// Routing flags, derived once after validation.
	NeedsDB       bool
	NeedsAnalysis bool

	// Progress markers.
	Attempts  int
	Fetched   bool
	LastError error

	// Accumulated results.
	Document  store.Document
	Documents []store.Document
	Analysis  *analyzer.Result
	Class     *analyzer.ClassReport
}

// NewState creates the envelope for a validated descriptor.
func NewState(requestID string, desc intent.Descriptor) *State {
	return &State{RequestID: requestID, Descriptor: desc}
}

// deriveNeeds sets the routing flags from the query kind. Every kind
// reads the store; the analysis kinds additionally run the analyzer.
func deriveNeeds(s *State) {
	s.NeedsDB = true
	switch s.Descriptor.QueryType {
	case intent.KindSummary, intent.KindTrend, intent.KindRisk, intent.KindClass:
		s.NeedsAnalysis = true
	}
}

// Response is the assembled result of one pipeline run.
type Response struct {
	RequestID string           `json:"request_id"`
	QueryType intent.QueryKind `json:"query_type"`
	ParsedBy  string           `json:"parsed_by"`
	SubjectID string           `json:"subject_id,omitempty"`

	Result   store.Document        `json:"result,omitempty"`
	Count    int                   `json:"count,omitempty"`
	Students []store.Document      `json:"students,omitempty"`
	Analysis *analyzer.Result      `json:"analysis,omitempty"`
	Class    *analyzer.ClassReport `json:"class,omitempty"`
}

// buildResponse assembles the response from whatever the run produced.
func buildResponse(s *State) *Response {
	resp := &Response{
		RequestID: s.RequestID,
		QueryType: s.Descriptor.QueryType,
		ParsedBy:  s.Descriptor.ParsedBy,
		SubjectID: s.Descriptor.SubjectID,
		Analysis:  s.Analysis,
		Class:     s.Class,
	}
	if s.Document != nil {
		resp.Result = s.Document
	}
	if s.Documents != nil {
		resp.Students = s.Documents
		resp.Count = len(s.Documents)
	}
	return resp
}
