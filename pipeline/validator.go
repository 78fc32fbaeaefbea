// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"axonflow/insights/gateway"
	"axonflow/insights/pipeline/intent"
)

// DefaultAnalysisFields is the projection used by the analysis kinds when
// the request names no fields. It covers every field the analyzer reads.
var DefaultAnalysisFields = []string{
	"name", "G1", "G2", "G3",
	"studytime", "absences", "failures",
	"goout", "Dalc", "Walc",
}

// ValidateDescriptor checks a descriptor against the known query kinds,
// the subject-id shape and the allow-list. Unrecognized fields are dropped
// silently; a request whose entire projection drops away is rejected.
// The returned descriptor always carries a non-empty, allow-listed
// projection.
func ValidateDescriptor(desc intent.Descriptor, allow *gateway.AllowList) (intent.Descriptor, error) {
	if !intent.ValidKind(desc.QueryType) {
		return desc, &ValidationError{Reason: ReasonUnknownQueryKind}
	}

	if desc.SubjectID != "" && !intent.ValidSubjectID(desc.SubjectID) {
		return desc, &ValidationError{Reason: ReasonBadIDFormat}
	}

	if subjectScoped(desc.QueryType) && desc.SubjectID == "" {
		return desc, &ValidationError{Reason: ReasonMissingSubjectID}
	}

	if len(desc.Fields) > 0 {
		filtered := allow.Filter(desc.Fields)
		if len(filtered) == 0 {
			return desc, &ValidationError{Reason: ReasonEmptyProjection}
		}
		desc.Fields = filtered
		return desc, nil
	}

	desc.Fields = defaultProjection(desc.QueryType, allow)
	return desc, nil
}

func subjectScoped(kind intent.QueryKind) bool {
	switch kind {
	case intent.KindQuery, intent.KindSummary, intent.KindTrend, intent.KindRisk:
		return true
	}
	return false
}

// defaultProjection picks the fields for requests that name none. Analysis
// kinds get the analyzer's working set; raw queries get the full surface.
func defaultProjection(kind intent.QueryKind, allow *gateway.AllowList) []string {
	switch kind {
	case intent.KindSummary, intent.KindTrend, intent.KindRisk, intent.KindClass:
		return allow.Filter(DefaultAnalysisFields)
	}
	return allow.Fields()
}
