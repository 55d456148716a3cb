package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fraud/internal/configuration"
	"fraud/internal/metrics"
	"fraud/internal/model"
	"fraud/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// amount > 100 at hour <= 6 scores 0.82; amount <= 100 scores 0.12.
const treeArtifact = `
type: tree
n_features: 2
children_left:  [1, -1, 3, -1, -1]
children_right: [2, -1, 4, -1, -1]
feature:        [0, -2, 1, -2, -2]
threshold:      [100.0, -2, 6.0, -2, -2]
value: [[50, 50], [88, 12], [20, 30], [18, 82], [2, 8]]
`

func newTestScorer(t *testing.T) *score.Scorer {
	t.Helper()
	m, err := model.Parse([]byte(treeArtifact))
	require.NoError(t, err)
	schema, err := score.NewSchema([]string{"amount", "hour"})
	require.NoError(t, err)
	scorer, err := score.NewScorer(m, 0.5, schema)
	require.NoError(t, err)
	return scorer
}

func newTestServer(t *testing.T, predict configuration.PredictConfig, registry *metrics.Registry) *httptest.Server {
	t.Helper()
	srv := NewServer(
		configuration.ServerConfig{Address: ":0", MaxBodyBytes: 4096},
		predict,
		newTestScorer(t),
		registry,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestPredict_Batch(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"items": [
		{"amount": 500.0, "hour": 3},
		{"amount": 10.0, "hour": 14}
	]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"predictions": [
		{"fraud_probability": 0.82, "final_prediction": "Fraud", "threshold_used": 0.5},
		{"fraud_probability": 0.12, "final_prediction": "Not Fraud", "threshold_used": 0.5}
	]}`, string(body))
}

func TestPredict_ContinueOnError(t *testing.T) {
	registry := metrics.NewRegistry()
	ts := newTestServer(t, configuration.PredictConfig{}, registry)

	status, body := post(t, ts, `{"items": [
		{"amount": 500.0, "hour": 3},
		{"amount": 10.0},
		{"amount": 10.0, "hour": 14}
	]}`)
	assert.Equal(t, http.StatusOK, status)

	predictions, ok := body["predictions"].([]any)
	require.True(t, ok)
	require.Len(t, predictions, 3)
	assert.Equal(t, "Fraud", predictions[0].(map[string]any)["final_prediction"])
	assert.Equal(t, map[string]any{"error": "Missing feature 'hour'"}, predictions[1])
	assert.Equal(t, "Not Fraud", predictions[2].(map[string]any)["final_prediction"])
}

func TestPredict_FailFast(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{FailFast: true}, nil)

	status, body := post(t, ts, `{"items": [{"amount": 500.0, "hour": 3}, {"amount": 10.0}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "item 1: Missing feature 'hour'", body["error"])
	assert.NotContains(t, body, "predictions")
}

func TestPredict_TrailingWhitespace(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	status, body := post(t, ts, "{\"items\": [{\"amount\": 500.0, \"hour\": 3}]}\n\n  ")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["predictions"], 1)
}

func TestPredict_EmptyItems(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	status, body := post(t, ts, `{"items": []}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["predictions"])
}

func TestPredict_Malformed(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{MaxItems: 2}, nil)

	for _, body := range []string{
		``,
		`not json`,
		`[]`,
		`{}`,
		`{"items": null}`,
		`{"items": {"amount": 1}}`,
		`{"items": [1, 2]}`,
		`{"items": [null]}`,
		`{"items": [{}, {}, {}]}`,
		`{"items": [{"amount": 500.0, "hour": 3}]} this is not json`,
		`{"items": [{"amount": 500.0, "hour": 3}]} {"items": []}`,
	} {
		status, decoded := post(t, ts, body)
		assert.Equal(t, http.StatusUnprocessableEntity, status, "body %q", body)
		assert.NotEmpty(t, decoded["error"], "body %q", body)
	}
}

func TestPredict_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	var buf bytes.Buffer
	buf.WriteString(`{"items": [`)
	for i := 0; i < 200; i++ {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(`{"amount": 500.0, "hour": 3}`)
	}
	buf.WriteString(`]}`)

	status, _ := post(t, ts, buf.String())
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestPredict_NumericStringsAndBooleans(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	status, body := post(t, ts, `{"items": [{"amount": "500", "hour": false}, {"amount": "abc", "hour": 1}]}`)
	assert.Equal(t, http.StatusOK, status)

	predictions := body["predictions"].([]any)
	require.Len(t, predictions, 2)
	assert.Equal(t, "Fraud", predictions[0].(map[string]any)["final_prediction"])
	assert.Equal(t, map[string]any{"error": "Invalid value for feature 'amount'"}, predictions[1])
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	resp, err := http.Get(ts.URL + "/predict")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok", "features": 2, "threshold": 0.5}`, string(body))
}

func TestMetrics(t *testing.T) {
	registry := metrics.NewRegistry()
	ts := newTestServer(t, configuration.PredictConfig{}, registry)

	status, _ := post(t, ts, `{"items": [{"amount": 500.0, "hour": 3}, {"hour": 3}]}`)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fraud_predictions_total{prediction="Fraud"} 1`)
	assert.Contains(t, string(body), `fraud_item_errors_total{kind="missing_feature"} 1`)
	assert.Contains(t, string(body), `fraud_batch_size_count 1`)
}

func TestMetrics_Disabled(t *testing.T) {
	ts := newTestServer(t, configuration.PredictConfig{}, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// failingBatch returns a fixed error regardless of the request context.
type failingBatch struct {
	err error
}

func (b failingBatch) Score(context.Context, []score.Record) ([]score.Outcome, error) {
	return nil, b.err
}

func TestPredict_BatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, `{"error": "request cancelled"}`},
		{"deadline", fmt.Errorf("scoring: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, `{"error": "request cancelled"}`},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, `{"error": "internal error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewApiRouter(newTestScorer(t), failingBatch{err: tt.err}, nil, 1024, 0)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"items": []}`))
			router.Mux().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
