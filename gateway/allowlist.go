// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import "sort"

// AllowList is the fixed set of field names the gateway may ever return.
// It is built once at startup and read-only afterwards, so concurrent reads
// need no locking.
type AllowList struct {
	fields map[string]struct{}
}

// DefaultAllowedFields is the full projection surface of the student record
// store: grades, demographics, study metrics, behavioral indicators and the
// remaining school fields.
var DefaultAllowedFields = []string{
	// Grades
	"G1", "G2", "G3",
	// Demographics
	"name", "age", "sex",
	// Study metrics
	"studytime", "absences", "failures",
	// Behavioral indicators
	"goout", "Dalc", "Walc",
	// Other school fields
	"school", "address", "famsize", "Pstatus",
	"Medu", "Fedu", "Mjob", "Fjob",
	"reason", "guardian", "traveltime", "Pclass",
	"activities", "nursery", "higher", "internet",
	"romantic", "freetime", "health", "paid",
}

// NewAllowList builds an allow-list from the given field names. The store's
// identity field is rejected even if listed.
func NewAllowList(fields []string) *AllowList {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "_id" {
			continue
		}
		set[f] = struct{}{}
	}
	return &AllowList{fields: set}
}

// DefaultAllowList returns the allow-list over DefaultAllowedFields.
func DefaultAllowList() *AllowList {
	return NewAllowList(DefaultAllowedFields)
}

// Contains reports whether the field may leave the gateway.
func (a *AllowList) Contains(field string) bool {
	_, ok := a.fields[field]
	return ok
}

// Filter returns the allow-listed subset of the requested fields,
// preserving request order and dropping duplicates.
func (a *AllowList) Filter(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		if a.Contains(f) {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of allow-listed fields.
func (a *AllowList) Len() int {
	return len(a.fields)
}

// Fields returns the allow-listed field names in sorted order.
func (a *AllowList) Fields() []string {
	out := make([]string, 0, len(a.fields))
	for f := range a.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
