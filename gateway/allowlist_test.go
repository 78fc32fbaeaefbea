// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowListContains(t *testing.T) {
	allow := DefaultAllowList()

	assert.True(t, allow.Contains("G3"))
	assert.True(t, allow.Contains("studytime"))
	assert.False(t, allow.Contains("_id"))
	assert.False(t, allow.Contains("password"))
	assert.False(t, allow.Contains("g3"))
}

func TestAllowListRejectsIdentityField(t *testing.T) {
	allow := NewAllowList([]string{"name", "_id", "G1"})

	assert.False(t, allow.Contains("_id"))
	assert.Equal(t, 2, allow.Len())
}

func TestAllowListFilter(t *testing.T) {
	allow := NewAllowList([]string{"name", "G1", "G2", "G3"})

	t.Run("preserves request order and drops unknown", func(t *testing.T) {
		got := allow.Filter([]string{"G3", "ssn", "name", "G1"})
		assert.Equal(t, []string{"G3", "name", "G1"}, got)
	})

	t.Run("drops duplicates", func(t *testing.T) {
		got := allow.Filter([]string{"name", "name", "G1"})
		assert.Equal(t, []string{"name", "G1"}, got)
	})

	t.Run("empty request filters to empty", func(t *testing.T) {
		assert.Empty(t, allow.Filter(nil))
	})
}

func TestAllowListFields(t *testing.T) {
	allow := NewAllowList([]string{"b", "a", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, allow.Fields())
}
