// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"context"

	"axonflow/insights/analyzer"
	"axonflow/insights/gateway"
	"axonflow/insights/pipeline/intent"
	"axonflow/insights/shared/logger"
)

// DefaultClassLimit bounds a class fetch when the request gives no limit.
const DefaultClassLimit = 500

// Orchestrator runs requests through resolve, validate, route, fetch and
// analyze. The routing loop is bounded: it exits on success, on a terminal
// error, or when the attempt cap is reached.
type Orchestrator struct {
	resolver    *intent.Resolver
	gw          *gateway.Gateway
	maxAttempts int
	log         *logger.Logger
}

// NewOrchestrator wires the pipeline. maxAttempts counts the first try.
func NewOrchestrator(resolver *intent.Resolver, gw *gateway.Gateway, maxAttempts int) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Orchestrator{
		resolver:    resolver,
		gw:          gw,
		maxAttempts: maxAttempts,
		log:         logger.New("orchestrator"),
	}
}

// Ask resolves a free-form question and executes the resulting descriptor.
func (o *Orchestrator) Ask(ctx context.Context, requestID, question string) (*Response, error) {
	desc := o.resolver.Resolve(ctx, requestID, question)
	return o.Execute(ctx, requestID, desc)
}

// Execute validates a descriptor and drives it through the routing loop.
func (o *Orchestrator) Execute(ctx context.Context, requestID string, desc intent.Descriptor) (*Response, error) {
	validated, err := ValidateDescriptor(desc, o.gw.AllowList())
	if err != nil {
		return nil, err
	}

	state := NewState(requestID, validated)
	deriveNeeds(state)

	for {
		switch Route(state) {
		case StepFetch:
			state.Attempts++
			if err := o.fetch(ctx, state); err != nil {
				state.LastError = err
			} else {
				state.Fetched = true
			}

		case StepAnalyze:
			o.analyze(state)

		case StepError:
			err := state.LastError
			if !retryable(err) {
				return nil, err
			}
			if state.Attempts >= o.maxAttempts {
				o.log.ErrorWithErr(requestID, "attempt cap reached", err, map[string]interface{}{
					"attempts":   state.Attempts,
					"query_type": string(state.Descriptor.QueryType),
				})
				return nil, &RetryExhaustedError{
					Attempts: state.Attempts,
					ParsedBy: state.Descriptor.ParsedBy,
					Last:     err,
				}
			}
			o.log.Warn(requestID, "retrying after failure", map[string]interface{}{
				"attempt": state.Attempts,
				"error":   err.Error(),
			})
			state.LastError = nil
			state.Fetched = false

		case StepRespond:
			return buildResponse(state), nil
		}
	}
}

func (o *Orchestrator) fetch(ctx context.Context, s *State) error {
	desc := s.Descriptor

	if desc.QueryType == intent.KindClass {
		limit := desc.Limit
		if limit <= 0 {
			limit = DefaultClassLimit
		}
		docs, err := o.gw.FetchClass(ctx, limit, desc.Fields)
		if err != nil {
			return err
		}
		s.Documents = docs
		return nil
	}

	doc, err := o.gw.FetchOne(ctx, desc.SubjectID, desc.Fields)
	if err != nil {
		return err
	}
	s.Document = doc
	return nil
}

// analyze never fails; malformed input surfaces as an insufficient-data
// result instead of an error.
func (o *Orchestrator) analyze(s *State) {
	switch s.Descriptor.QueryType {
	case intent.KindSummary:
		r := analyzer.Summarize(s.Document)
		s.Analysis = &r
	case intent.KindTrend:
		r := analyzer.Trend(s.Document)
		s.Analysis = &r
	case intent.KindRisk:
		r := analyzer.Risk(s.Document)
		s.Analysis = &r
	case intent.KindClass:
		rep := analyzer.AnalyzeClass(s.Documents, s.Descriptor.Options)
		s.Class = &rep
	}
}
