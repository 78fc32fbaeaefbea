// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

// Step is the next pipeline node the router selects.
type Step string

const (
	StepError   Step = "error"
	StepAnalyze Step = "analyze"
	StepFetch   Step = "fetch"
	StepRespond Step = "respond"
)

// Route picks the next step from the request state. The priority is
// fixed: errors short-circuit everything, analysis runs only after its
// fetch completed, outstanding fetches come before responding.
func Route(s *State) Step {
	switch {
	case s.LastError != nil:
		return StepError
	case s.NeedsAnalysis && s.Fetched && s.Analysis == nil && s.Class == nil:
		return StepAnalyze
	case s.NeedsDB && !s.Fetched:
		return StepFetch
	}
	return StepRespond
}
