// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package intent turns free-form questions into structured request
// descriptors. Resolution prefers an LLM classifier and falls back to a
// deterministic heuristic parser, so resolving never fails outright.
package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"axonflow/insights/analyzer"
	"axonflow/insights/shared/logger"
)

// QueryKind identifies what the pipeline should do with a request.
type QueryKind string

const (
	// KindQuery fetches a projected record without analysis.
	KindQuery QueryKind = "query"
	// KindSummary computes averages, growth and study efficiency.
	KindSummary QueryKind = "summary"
	// KindTrend classifies the grade trajectory.
	KindTrend QueryKind = "trend"
	// KindRisk classifies risk and derives alerts.
	KindRisk QueryKind = "risk"
	// KindClass runs the class-wide ranking and stats.
	KindClass QueryKind = "class"
)

// Parser origin markers, surfaced in responses for observability.
const (
	ParsedByClassifier = "classifier"
	ParsedByHeuristic  = "heuristic"
)

// ValidKind reports whether k is one of the recognized query kinds.
func ValidKind(k QueryKind) bool {
	switch k {
	case KindQuery, KindSummary, KindTrend, KindRisk, KindClass:
		return true
	}
	return false
}

// Descriptor is the structured form of a resolved question.
type Descriptor struct {
	QueryType QueryKind             `json:"query_type"`
	SubjectID string                `json:"subject_id,omitempty"`
	Fields    []string              `json:"fields,omitempty"`
	Limit     int                   `json:"limit,omitempty"`
	Options   analyzer.ClassOptions `json:"options,omitempty"`
	ParsedBy  string                `json:"parsed_by"`
}

// Classifier is the LLM backend used for intent classification.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

const systemPrompt = `You classify questions about student performance into JSON.
Respond with a single JSON object and nothing else:
{"query_type": one of "query", "summary", "trend", "risk", "class",
 "student_id": 24-character hex id if the question names one, else omit,
 "fields": array of requested field names, else omit,
 "top_n": integer if the question limits results, else omit,
 "page": integer page number if present, else omit,
 "at_risk_only": true if the question asks only about at-risk students,
 "grade_threshold": integer minimum final grade if present, else omit}`

// llmIntent is the wire shape the classifier is prompted to produce.
type llmIntent struct {
	QueryType      string   `json:"query_type"`
	StudentID      string   `json:"student_id"`
	Fields         []string `json:"fields"`
	TopN           int      `json:"top_n"`
	Page           int      `json:"page"`
	AtRiskOnly     bool     `json:"at_risk_only"`
	GradeThreshold *int     `json:"grade_threshold"`
}

// Resolver resolves questions into descriptors. A nil classifier means
// heuristic-only operation.
type Resolver struct {
	classifier Classifier
	timeout    time.Duration
	log        *logger.Logger
}

// NewResolver creates a resolver. timeout bounds each classifier call.
func NewResolver(classifier Classifier, timeout time.Duration) *Resolver {
	return &Resolver{
		classifier: classifier,
		timeout:    timeout,
		log:        logger.New("intent-resolver"),
	}
}

// ClassifierEnabled reports whether a classifier is wired in.
func (r *Resolver) ClassifierEnabled() bool {
	return r.classifier != nil
}

// Resolve produces a descriptor for the question. Classifier failures of
// any kind, transport, malformed JSON or out-of-range values, degrade to
// the heuristic parser instead of surfacing an error.
func (r *Resolver) Resolve(ctx context.Context, requestID, question string) Descriptor {
	if r.classifier == nil {
		return Heuristic(question)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content, err := r.classifier.Classify(callCtx, systemPrompt, question)
	if err != nil {
		r.log.Warn(requestID, "classifier unavailable, using heuristic parser", map[string]interface{}{
			"classifier": r.classifier.Name(),
			"error":      err.Error(),
		})
		return Heuristic(question)
	}

	desc, ok := parseClassifierIntent(content)
	if !ok {
		r.log.Warn(requestID, "classifier returned unusable intent, using heuristic parser", map[string]interface{}{
			"classifier": r.classifier.Name(),
		})
		return Heuristic(question)
	}
	return desc
}

// parseClassifierIntent validates the classifier output. Anything that
// does not decode into a recognized descriptor is rejected so the caller
// can degrade to the heuristic path.
func parseClassifierIntent(content string) (Descriptor, bool) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start > 0 {
		content = content[start:]
	}
	if end := strings.LastIndex(content, "}"); end >= 0 {
		content = content[:end+1]
	}

	var raw llmIntent
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Descriptor{}, false
	}

	kind := QueryKind(strings.ToLower(strings.TrimSpace(raw.QueryType)))
	if !ValidKind(kind) {
		return Descriptor{}, false
	}

	if raw.StudentID != "" && !subjectIDPattern.MatchString(raw.StudentID) {
		return Descriptor{}, false
	}

	return Descriptor{
		QueryType: kind,
		SubjectID: strings.ToLower(raw.StudentID),
		Fields:    raw.Fields,
		Options: analyzer.ClassOptions{
			TopN:           raw.TopN,
			Page:           raw.Page,
			AtRiskOnly:     raw.AtRiskOnly,
			GradeThreshold: raw.GradeThreshold,
		},
		ParsedBy: ParsedByClassifier,
	}, true
}
