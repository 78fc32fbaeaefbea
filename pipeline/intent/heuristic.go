// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package intent

import (
	"regexp"
	"strconv"
	"strings"

	"axonflow/insights/analyzer"
)

var (
	subjectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

	labeledIDPattern    = regexp.MustCompile(`(?i)\bid[:=\s]+([0-9a-fA-F]{24})\b`)
	studentIDPattern    = regexp.MustCompile(`(?i)\bstudent\s+([0-9a-fA-F]{24})\b`)
	standaloneIDPattern = regexp.MustCompile(`\b([0-9a-fA-F]{24})\b`)

	topNPattern      = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)
	pagePattern      = regexp.MustCompile(`(?i)\bpage\s+(\d+)\b`)
	thresholdPattern = regexp.MustCompile(`(?i)\b(?:grade|score)s?\s*(?:>=|above|over|at least)\s*(\d+)\b`)
	atRiskPattern    = regexp.MustCompile(`(?i)at[- ]?risk|struggl`)
)

var (
	trendKeywords = []string{"trend", "progress", "improv", "declin", "trajectory", "over time", "getting better", "getting worse"}
	riskKeywords  = []string{"risk", "alert", "fail", "danger", "warning", "struggling"}
	classKeywords = []string{"class", "everyone", "all students", "ranking", "rank", "cohort", "top ", "whole group"}
)

// ValidSubjectID reports whether s is exactly 24 hexadecimal characters.
func ValidSubjectID(s string) bool {
	return subjectIDPattern.MatchString(s)
}

// Heuristic parses a question deterministically. It always returns a
// usable descriptor: unknown phrasing degrades to a summary or class
// query rather than an error.
func Heuristic(question string) Descriptor {
	lower := strings.ToLower(question)

	desc := Descriptor{
		SubjectID: extractSubjectID(question),
		Options:   extractOptions(lower),
		ParsedBy:  ParsedByHeuristic,
	}
	desc.QueryType = classifyKeywords(lower, desc.SubjectID != "")
	return desc
}

// classifyKeywords picks the query kind by keyword match. Subject-scoped
// kinds win over class when an id is present, since "is student X at
// risk" must not become a class query.
func classifyKeywords(lower string, hasSubject bool) QueryKind {
	if !hasSubject {
		return KindClass
	}
	switch {
	case containsAny(lower, trendKeywords):
		return KindTrend
	case containsAny(lower, riskKeywords):
		return KindRisk
	case containsAny(lower, classKeywords):
		return KindClass
	}
	return KindSummary
}

// extractSubjectID finds a 24-hex identifier, preferring labeled forms
// over a bare token anywhere in the question.
func extractSubjectID(question string) string {
	for _, pattern := range []*regexp.Regexp{labeledIDPattern, studentIDPattern, standaloneIDPattern} {
		if m := pattern.FindStringSubmatch(question); m != nil {
			return strings.ToLower(m[1])
		}
	}
	return ""
}

func extractOptions(lower string) analyzer.ClassOptions {
	opts := analyzer.ClassOptions{}

	if m := topNPattern.FindStringSubmatch(lower); m != nil {
		opts.TopN, _ = strconv.Atoi(m[1])
	}
	if m := pagePattern.FindStringSubmatch(lower); m != nil {
		opts.Page, _ = strconv.Atoi(m[1])
	}
	if m := thresholdPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			opts.GradeThreshold = &n
		}
	}
	if atRiskPattern.MatchString(lower) {
		opts.AtRiskOnly = true
	}

	return opts
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
