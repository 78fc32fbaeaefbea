// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubjectID = "689cef602490264c7f2dd235"

type stubClassifier struct {
	content string
	err     error
	called  bool
}

func (s *stubClassifier) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.called = true
	return s.content, s.err
}

func (s *stubClassifier) Name() string { return "stub" }

func TestResolve_ClassifierIntent(t *testing.T) {
	classifier := &stubClassifier{
		content: `{"query_type":"trend","student_id":"` + testSubjectID + `"}`,
	}
	resolver := NewResolver(classifier, time.Second)

	desc := resolver.Resolve(context.Background(), "req-1", "how is this student trending?")

	assert.True(t, classifier.called)
	assert.Equal(t, KindTrend, desc.QueryType)
	assert.Equal(t, testSubjectID, desc.SubjectID)
	assert.Equal(t, ParsedByClassifier, desc.ParsedBy)
}

func TestResolve_ClassifierOptions(t *testing.T) {
	classifier := &stubClassifier{
		content: `{"query_type":"class","top_n":5,"page":2,"at_risk_only":true,"grade_threshold":12}`,
	}
	resolver := NewResolver(classifier, time.Second)

	desc := resolver.Resolve(context.Background(), "req-1", "top 5 at-risk students, page 2")

	assert.Equal(t, KindClass, desc.QueryType)
	assert.Equal(t, 5, desc.Options.TopN)
	assert.Equal(t, 2, desc.Options.Page)
	assert.True(t, desc.Options.AtRiskOnly)
	require.NotNil(t, desc.Options.GradeThreshold)
	assert.Equal(t, 12, *desc.Options.GradeThreshold)
}

func TestResolve_ClassifierSurroundingProse(t *testing.T) {
	classifier := &stubClassifier{
		content: "Here is the intent:\n{\"query_type\":\"risk\",\"student_id\":\"" + testSubjectID + "\"}\nDone.",
	}
	resolver := NewResolver(classifier, time.Second)

	desc := resolver.Resolve(context.Background(), "req-1", "is this student at risk?")

	assert.Equal(t, KindRisk, desc.QueryType)
	assert.Equal(t, ParsedByClassifier, desc.ParsedBy)
}

func TestResolve_FallbackOnClassifierError(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("connection refused")}
	resolver := NewResolver(classifier, time.Second)

	desc := resolver.Resolve(context.Background(), "req-1", "summary for student "+testSubjectID)

	assert.Equal(t, ParsedByHeuristic, desc.ParsedBy)
	assert.Equal(t, KindSummary, desc.QueryType)
	assert.Equal(t, testSubjectID, desc.SubjectID)
}

func TestResolve_FallbackOnBadClassifierOutput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "the student seems fine"},
		{"unknown kind", `{"query_type":"predict"}`},
		{"malformed id", `{"query_type":"summary","student_id":"xyz"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(&stubClassifier{content: tc.content}, time.Second)

			desc := resolver.Resolve(context.Background(), "req-1", "show the class ranking")
			assert.Equal(t, ParsedByHeuristic, desc.ParsedBy)
			assert.Equal(t, KindClass, desc.QueryType)
		})
	}
}

func TestResolve_NilClassifierUsesHeuristic(t *testing.T) {
	resolver := NewResolver(nil, time.Second)

	desc := resolver.Resolve(context.Background(), "req-1", "risk for student "+testSubjectID)

	assert.Equal(t, ParsedByHeuristic, desc.ParsedBy)
	assert.Equal(t, KindRisk, desc.QueryType)
}

func TestHeuristic_QueryKinds(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     QueryKind
	}{
		{"trend with id", "show the grade trend for student " + testSubjectID, KindTrend},
		{"risk with id", "is " + testSubjectID + " at risk of failing?", KindRisk},
		{"summary default with id", "tell me about student " + testSubjectID, KindSummary},
		{"class without id", "how is everyone doing?", KindClass},
		{"plain question without id", "what's going on?", KindClass},
		{"improvement phrasing", "has student " + testSubjectID + " been improving?", KindTrend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Heuristic(tc.question).QueryType)
		})
	}
}

func TestHeuristic_SubjectExtraction(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     string
	}{
		{"labeled id", "summary for id: " + testSubjectID, testSubjectID},
		{"student prefix", "how is student " + testSubjectID + " doing", testSubjectID},
		{"bare token", "summary " + testSubjectID, testSubjectID},
		{"uppercase hex is normalized", "student 689CEF602490264C7F2DD235", testSubjectID},
		{"too short", "student 689cef60", ""},
		{"no id", "how is the class doing", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Heuristic(tc.question).SubjectID)
		})
	}
}

func TestHeuristic_Options(t *testing.T) {
	desc := Heuristic("show top 3 at-risk students with grades above 10, page 2")

	assert.Equal(t, KindClass, desc.QueryType)
	assert.Equal(t, 3, desc.Options.TopN)
	assert.Equal(t, 2, desc.Options.Page)
	assert.True(t, desc.Options.AtRiskOnly)
	require.NotNil(t, desc.Options.GradeThreshold)
	assert.Equal(t, 10, *desc.Options.GradeThreshold)

	for _, q := range []string{
		"show the struggling students",
		"who is struggling in class",
		"list atrisk students",
		"students at risk",
	} {
		desc := Heuristic(q)
		assert.True(t, desc.Options.AtRiskOnly, q)
	}
	assert.False(t, Heuristic("rank everyone by grade").Options.AtRiskOnly)
}

func TestHeuristic_NeverFails(t *testing.T) {
	for _, q := range []string{"", "   ", "?????", "aaaaaaaaaaaaaaaaaaaaaaaa is not hex... wait it is"} {
		desc := Heuristic(q)
		assert.True(t, ValidKind(desc.QueryType), q)
		assert.Equal(t, ParsedByHeuristic, desc.ParsedBy)
	}
}
