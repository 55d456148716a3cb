package metrics

import (
	"errors"
	"net/http"

	"fraud/internal/score"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	KindMissingFeature = "missing_feature"
	KindInvalidFeature = "invalid_feature"
	KindModel          = "model"
	KindOther          = "other"
)

// Registry holds the prometheus collectors of the prediction service.
// It implements score.Observer so a Batch reports every outcome to it.
type Registry struct {
	// Predictions — scored items by verdict
	Predictions *prometheus.CounterVec
	// ItemErrors — failed items by error kind
	ItemErrors *prometheus.CounterVec
	// Probability — distribution of returned fraud probabilities
	Probability prometheus.Histogram
	// BatchSize — number of items per request
	BatchSize prometheus.Histogram

	registry *prometheus.Registry
}

// Observe records one batch outcome.
func (r *Registry) Observe(o score.Outcome) {
	if o.Err != nil {
		r.ItemErrors.WithLabelValues(ErrorKind(o.Err)).Inc()
		return
	}

	r.Predictions.WithLabelValues(string(o.Result.FinalPrediction)).Inc()
	r.Probability.Observe(o.Result.FraudProbability)
}

// ObserveBatch records the size of a submitted batch.
func (r *Registry) ObserveBatch(size int) {
	r.BatchSize.Observe(float64(size))
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ErrorKind classifies an item error for the error counter label.
func ErrorKind(err error) string {
	var missing *score.MissingFeatureError
	var invalid *score.InvalidFeatureError
	var model *score.ModelError
	switch {
	case errors.As(err, &missing):
		return KindMissingFeature
	case errors.As(err, &invalid):
		return KindInvalidFeature
	case errors.As(err, &model):
		return KindModel
	default:
		return KindOther
	}
}

// NewRegistry creates the collectors and registers them, together with the
// Go runtime and process collectors, in a dedicated prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraud_predictions_total",
				Help: "Total number of scored items by final prediction",
			},
			[]string{"prediction"},
		),

		ItemErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraud_item_errors_total",
				Help: "Total number of items that could not be scored by error kind",
			},
			[]string{"kind"},
		),

		Probability: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fraud_probability",
				Help:    "Distribution of returned fraud probabilities",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),

		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fraud_batch_size",
				Help:    "Number of items per prediction request",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(
		r.Predictions,
		r.ItemErrors,
		r.Probability,
		r.BatchSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}
