// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package analyzer computes performance analytics over projected student
// documents. Every function is pure: no I/O, no shared state, results are
// never mutated after creation.
package analyzer

import (
	"fmt"

	"axonflow/insights/gateway/store"
)

// GradeFields is the ordered grade sequence every analysis walks.
var GradeFields = [3]string{"G1", "G2", "G3"}

// PassingGrade is the final-grade threshold below which a student is
// considered at risk.
const PassingGrade = 10.0

// RiskLevel is the three-tier risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// TrendDirection describes the shape of the ordered grade sequence.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Result is the outcome of a single-student analysis. It is derived purely
// from a projected document and safe to share once returned.
type Result struct {
	Average              float64        `json:"average"`
	GrowthDelta          float64        `json:"growth_delta"`
	StudyEfficiencyLabel string         `json:"study_efficiency_label,omitempty"`
	RiskLevel            RiskLevel      `json:"risk_level,omitempty"`
	Alerts               []string       `json:"alerts"`
	TrendDirection       TrendDirection `json:"trend_direction,omitempty"`
	Sparkline            string         `json:"sparkline,omitempty"`
	InsufficientData     bool           `json:"insufficient_data"`
}

// Summarize computes the grade average, growth and study-efficiency label.
// Missing grades count as 0 toward the average; fewer than two present
// grades flags the result as insufficient data instead of erroring.
func Summarize(doc store.Document) Result {
	grades := presentGrades(doc)

	result := Result{Alerts: []string{}}
	result.InsufficientData = len(grades) < 2

	var sum float64
	for _, g := range grades {
		sum += g
	}
	result.Average = sum / float64(len(GradeFields))

	if len(grades) >= 2 {
		result.GrowthDelta = grades[len(grades)-1] - grades[0]
	}

	if len(grades) > 0 {
		final := grades[len(grades)-1]
		studytime, _ := numeric(doc, "studytime")
		if studytime >= 2 && final >= 12 {
			result.StudyEfficiencyLabel = "good"
		} else {
			result.StudyEfficiencyLabel = "needs improvement"
		}
	}

	return result
}

// Trend classifies the ordered grade sequence. Strictly increasing across
// every consecutive pair is improving, strictly decreasing is declining,
// anything else, ties included, is stable.
func Trend(doc store.Document) Result {
	grades := presentGrades(doc)

	result := Result{
		Alerts:         []string{},
		TrendDirection: TrendStable,
		Sparkline:      Sparkline(grades),
	}
	if len(grades) < 2 {
		result.InsufficientData = true
		return result
	}

	increasing, decreasing := true, true
	for i := 1; i < len(grades); i++ {
		if grades[i] <= grades[i-1] {
			increasing = false
		}
		if grades[i] >= grades[i-1] {
			decreasing = false
		}
	}

	switch {
	case increasing:
		result.TrendDirection = TrendImproving
	case decreasing:
		result.TrendDirection = TrendDeclining
	}
	return result
}

// Risk classifies the final grade and generates the independent alert list.
// No alert conditions firing yields an empty list, not an error.
func Risk(doc store.Document) Result {
	result := Result{Alerts: []string{}}

	final, hasFinal := numeric(doc, "G3")
	if !hasFinal {
		result.InsufficientData = true
		result.RiskLevel = RiskHigh
		return result
	}

	result.RiskLevel = ClassifyRisk(final)
	result.Alerts = DerivedAlerts(doc)
	return result
}

// ClassifyRisk maps a final grade to a risk level. The three bands form a
// total, non-overlapping partition of the grade space.
func ClassifyRisk(finalGrade float64) RiskLevel {
	switch {
	case finalGrade < PassingGrade:
		return RiskHigh
	case finalGrade < 12:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DerivedAlerts evaluates each alert condition independently and returns
// one string per firing condition, in fixed order.
func DerivedAlerts(doc store.Document) []string {
	alerts := []string{}

	if final, ok := numeric(doc, "G3"); ok && final < PassingGrade {
		alerts = append(alerts, fmt.Sprintf("at_risk: final grade below passing threshold (G3=%g)", final))
	}

	if failures, ok := numeric(doc, "failures"); ok && failures > 0 {
		alerts = append(alerts, fmt.Sprintf("failure_alert: %g prior failures", failures))
	}

	if absences, ok := numeric(doc, "absences"); ok && absences > 10 {
		alerts = append(alerts, fmt.Sprintf("attendance_alert: %g absences", absences))
	}

	if studytime, ok := numeric(doc, "studytime"); ok && studytime < 2 {
		alerts = append(alerts, fmt.Sprintf("study_alert: weekly study time %gh below minimum", studytime))
	}

	goout, _ := numeric(doc, "goout")
	dalc, _ := numeric(doc, "Dalc")
	walc, _ := numeric(doc, "Walc")
	if goout > 3 || dalc > 3 || walc > 3 {
		alerts = append(alerts, fmt.Sprintf(
			"behavior_alert: goout=%g, daily_alcohol=%g, weekend_alcohol=%g", goout, dalc, walc))
	}

	return alerts
}

// Sparkline renders the grade sequence as a fixed-width run of block
// characters, one per grade.
func Sparkline(grades []float64) string {
	if len(grades) == 0 {
		return ""
	}

	blocks := []rune("▁▂▃▄▅▆▇█")

	gmin, gmax := grades[0], grades[0]
	for _, g := range grades[1:] {
		if g < gmin {
			gmin = g
		}
		if g > gmax {
			gmax = g
		}
	}

	span := gmax - gmin
	if span <= 0 {
		span = 1
	}

	out := make([]rune, len(grades))
	for i, g := range grades {
		idx := int((g - gmin) / span * float64(len(blocks)-1))
		out[i] = blocks[idx]
	}
	return string(out)
}

// presentGrades returns the grades that exist on the document, preserving
// the G1→G3 order.
func presentGrades(doc store.Document) []float64 {
	grades := make([]float64, 0, len(GradeFields))
	for _, field := range GradeFields {
		if g, ok := numeric(doc, field); ok {
			grades = append(grades, g)
		}
	}
	return grades
}

// numeric extracts a field as float64, accepting the integer and float
// widths that BSON and JSON decoding produce.
func numeric(doc store.Document, field string) (float64, bool) {
	v, ok := doc[field]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
