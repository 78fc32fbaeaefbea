// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package analyzer

import (
	"sort"

	"axonflow/insights/gateway/store"
)

// ClassOptions controls ranking, filtering and pagination of a class-wide
// analysis. The zero value means everything, first page.
type ClassOptions struct {
	TopN           int  `json:"top_n,omitempty"`
	Page           int  `json:"page,omitempty"`
	AtRiskOnly     bool `json:"at_risk_only,omitempty"`
	GradeThreshold *int `json:"grade_threshold,omitempty"`
}

// RankedStudent is one row of the class ranking.
type RankedStudent struct {
	Name       string    `json:"name"`
	FinalGrade float64   `json:"final_grade"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// ClassStats aggregates final grades across the graded population.
type ClassStats struct {
	Average       float64 `json:"average"`
	Highest       float64 `json:"highest"`
	Lowest        float64 `json:"lowest"`
	Graded        int     `json:"graded"`
	AtRiskCount   int     `json:"at_risk_count"`
	AtRiskPercent float64 `json:"at_risk_percent"`
}

// ClassReport is the result of a class-wide analysis.
type ClassReport struct {
	Total     int             `json:"total"`
	Ranked    []RankedStudent `json:"ranked"`
	Stats     ClassStats      `json:"stats"`
	Page      int             `json:"page"`
	PageSize  int             `json:"page_size"`
	Remaining int             `json:"remaining"`
}

const defaultPageSize = 10

// AnalyzeClass ranks students by final grade descending, applies the
// requested filters, computes population stats over the filtered set and
// returns the requested page. Students without a final grade are excluded
// from the ranking but still counted in Total.
func AnalyzeClass(docs []store.Document, opts ClassOptions) ClassReport {
	ranked := make([]RankedStudent, 0, len(docs))
	for _, doc := range docs {
		final, ok := numeric(doc, "G3")
		if !ok {
			continue
		}
		name, _ := doc["name"].(string)
		ranked = append(ranked, RankedStudent{
			Name:       name,
			FinalGrade: final,
			RiskLevel:  ClassifyRisk(final),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalGrade > ranked[j].FinalGrade
	})

	if opts.AtRiskOnly {
		ranked = filterRanked(ranked, func(s RankedStudent) bool {
			return s.FinalGrade < PassingGrade
		})
	}
	if opts.GradeThreshold != nil {
		threshold := float64(*opts.GradeThreshold)
		ranked = filterRanked(ranked, func(s RankedStudent) bool {
			return s.FinalGrade >= threshold
		})
	}

	stats := classStats(ranked)

	pageSize := opts.TopN
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	pageRows, remaining := paginate(ranked, page, pageSize)

	return ClassReport{
		Total:     len(docs),
		Ranked:    pageRows,
		Stats:     stats,
		Page:      page,
		PageSize:  pageSize,
		Remaining: remaining,
	}
}

func filterRanked(in []RankedStudent, keep func(RankedStudent) bool) []RankedStudent {
	out := make([]RankedStudent, 0, len(in))
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func classStats(ranked []RankedStudent) ClassStats {
	stats := ClassStats{Graded: len(ranked)}
	if len(ranked) == 0 {
		return stats
	}

	var sum float64
	stats.Highest = ranked[0].FinalGrade
	stats.Lowest = ranked[0].FinalGrade
	for _, s := range ranked {
		sum += s.FinalGrade
		if s.FinalGrade > stats.Highest {
			stats.Highest = s.FinalGrade
		}
		if s.FinalGrade < stats.Lowest {
			stats.Lowest = s.FinalGrade
		}
		if s.FinalGrade < PassingGrade {
			stats.AtRiskCount++
		}
	}
	stats.Average = sum / float64(len(ranked))
	stats.AtRiskPercent = float64(stats.AtRiskCount) / float64(len(ranked)) * 100
	return stats
}

// paginate slices one page out of the ranking and reports how many rows
// remain after it. Pages past the end yield an empty slice, never an error.
func paginate(ranked []RankedStudent, page, pageSize int) ([]RankedStudent, int) {
	start := (page - 1) * pageSize
	if start >= len(ranked) {
		return []RankedStudent{}, 0
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[start:end], len(ranked) - end
}
