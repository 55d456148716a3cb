package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fraud/internal/metrics"
	"fraud/internal/score"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ApiRouter manages routes of the prediction service.
// Routes:
// - POST /predict — scores a batch of feature records
// - GET /health — liveness and loaded artifact summary
// - GET /metrics — prometheus metrics (if enabled)
type ApiRouter struct {
	// batch — scores the submitted records in order.
	batch score.BatchScorer
	// scorer — source of the threshold and schema reported by /health.
	scorer *score.Scorer
	// metrics — prometheus registry; nil disables /metrics.
	metrics *metrics.Registry
	// maxBodyBytes — request body limit for /predict.
	maxBodyBytes int64
	// maxItems — item limit per /predict request.
	maxItems int
}

// Mux returns a chi router with the service routes and middleware:
// request id, real ip, structured request log and panic recovery.
func (ar *ApiRouter) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/predict", ar.predictHandler)
	r.Get("/health", ar.healthHandler)

	if ar.metrics != nil {
		r.Method(http.MethodGet, "/metrics", ar.metrics.Handler())
	}

	return r
}

// predictHandler handles POST /predict.
// Expects {"items": [{<feature>: <value>, ...}, ...]} and answers with
// {"predictions": [...]}, one entry per item in request order. An item that
// cannot be scored is reported as {"error": "..."} unless the batch runs in
// fail-fast mode, in which case the whole request fails with 422.
func (ar *ApiRouter) predictHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ar.maxBodyBytes)
	defer r.Body.Close()

	records, err := decodePredictRequest(r.Body, ar.maxItems)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("Predict request body too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		slog.Warn("Malformed predict request", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if ar.metrics != nil {
		ar.metrics.ObserveBatch(len(records))
	}

	outcomes, err := ar.batch.Score(r.Context(), records)
	if err != nil {
		var itemErr *score.ItemError
		switch {
		case errors.As(err, &itemErr):
			writeError(w, http.StatusUnprocessableEntity, itemErr.Error())
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			slog.Warn("Predict request cancelled", "items", len(records), "error", err)
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			slog.Error("Unable to score batch", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{Predictions: outcomes})
}

type healthResponse struct {
	Status    string  `json:"status"`
	Features  int     `json:"features"`
	Threshold float64 `json:"threshold"`
}

// healthHandler reports that the artifacts are loaded and the service accepts requests.
func (ar *ApiRouter) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Features:  ar.scorer.Schema().Len(),
		Threshold: ar.scorer.Threshold(),
	})
}

// requestLogger emits one slog record per request.
// Bodies are never logged since they carry transaction data.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// NewApiRouter creates a new router.
// Parameters:
// - scorer: single record scorer, used for /health
// - batch: batch driver wrapping the scorer
// - registry: prometheus registry (can be nil)
// - maxBodyBytes: request body limit
// - maxItems: item limit per request (0 disables the limit)
//
// Returns pointer to configured ApiRouter.
func NewApiRouter(
	scorer *score.Scorer,
	batch score.BatchScorer,
	registry *metrics.Registry,
	maxBodyBytes int64,
	maxItems int,
) *ApiRouter {
	return &ApiRouter{
		scorer:       scorer,
		batch:        batch,
		metrics:      registry,
		maxBodyBytes: maxBodyBytes,
		maxItems:     maxItems,
	}
}
