// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pipeline

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/insights/gateway/store/fixture"
)

func testRouter(t *testing.T) *mux.Router {
	t.Helper()
	server := NewServer(fixtureOrchestrator(t), NewMetrics())
	r := mux.NewRouter()
	server.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuery(t *testing.T) {
	router := testRouter(t)

	t.Run("projected result without identity field", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/query", queryRequest{
			SubjectID: carlaID,
			Fields:    []string{"name", "G1", "G2", "G3"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Carla", resp.Result["name"])
		assert.NotContains(t, resp.Result, "_id")
	})

	t.Run("bad id format is a 400", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/query", queryRequest{SubjectID: "not-a-valid-id"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ReasonBadIDFormat, resp.Reason)
		assert.Equal(t, string(KindValidationError), resp.Kind)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/query", queryRequest{SubjectID: "ffffffffffffffffffffffff"})

		require.Equal(t, http.StatusNotFound, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(KindNotFound), resp.Kind)
	})

	t.Run("all fields dropped is a 400", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/query", queryRequest{
			SubjectID: carlaID,
			Fields:    []string{"password"},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ReasonEmptyProjection, resp.Reason)
	})
}

func TestHandleClassAnalysis(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, "POST", "/class_analysis", classAnalysisRequest{Limit: 500})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fixture.New().Size(), resp.Count)
	assert.Len(t, resp.Students, resp.Count)
	require.NotNil(t, resp.Class)
	assert.Equal(t, resp.Count, resp.Class.Total)
}

func TestHandleAnalyze(t *testing.T) {
	router := testRouter(t)

	t.Run("risk", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/analyze/risk", analyzeRequest{SubjectID: faridID})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Analysis)
		assert.Equal(t, "high", string(resp.Analysis.RiskLevel))
	})

	t.Run("summary", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/analyze/summary", analyzeRequest{SubjectID: carlaID})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Analysis)
		assert.InDelta(t, 12.0, resp.Analysis.Average, 0.001)
	})

	t.Run("unknown analysis kind does not match the route", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/analyze/predict", analyzeRequest{SubjectID: carlaID})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleAsk(t *testing.T) {
	router := testRouter(t)

	t.Run("heuristic trend question", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/ask", askRequest{
			Input: "trend for student " + carlaID,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "trend", string(resp.QueryType))
		assert.Equal(t, "heuristic", resp.ParsedBy)
	})

	t.Run("empty question is a 400", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/ask", askRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	components, ok := body["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, components["gateway"])
	assert.Equal(t, true, components["cache"])
	assert.Equal(t, false, components["classifier"])
}

func TestHandleMetrics(t *testing.T) {
	router := testRouter(t)

	doJSON(t, router, "POST", "/query", queryRequest{SubjectID: carlaID, Fields: []string{"name"}})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.RequestsByKind["query"])
}