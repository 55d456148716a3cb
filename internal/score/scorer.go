package score

import (
	"fmt"
	"math"

	"fraud/internal/model"
)

// Verdict is the thresholded classification of a record.
type Verdict string

const (
	Fraud    Verdict = "Fraud"
	NotFraud Verdict = "Not Fraud"
)

// Result is the outcome of scoring one record.
type Result struct {
	FraudProbability float64 `json:"fraud_probability"`
	FinalPrediction  Verdict `json:"final_prediction"`
	ThresholdUsed    float64 `json:"threshold_used"`
}

// Scorer turns a feature record into a fraud verdict.
// The model, threshold and schema are injected at construction and never change,
// so a Scorer is safe for concurrent use without locking.
type Scorer struct {
	model     model.Model
	threshold float64
	schema    Schema
}

// Score builds the model input in schema order, asks the model for the fraud
// probability and compares it with the threshold. A probability equal to the
// threshold is classified as Fraud.
//
// Errors:
//   - MissingFeatureError — the first schema feature absent from r;
//   - InvalidFeatureError — a value that is not a usable number;
//   - ModelError — the model failed or returned a value outside [0, 1].
func (s *Scorer) Score(r Record) (Result, error) {
	vector, err := s.schema.Vector(r)
	if err != nil {
		return Result{}, err
	}

	p, err := s.model.PredictProba(vector)
	if err != nil {
		return Result{}, &ModelError{Err: err}
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, &ModelError{Err: fmt.Errorf("probability %v outside [0, 1]", p)}
	}

	verdict := NotFraud
	if p >= s.threshold {
		verdict = Fraud
	}

	return Result{
		FraudProbability: p,
		FinalPrediction:  verdict,
		ThresholdUsed:    s.threshold,
	}, nil
}

func (s *Scorer) Threshold() float64 {
	return s.threshold
}

func (s *Scorer) Schema() Schema {
	return s.schema
}

// NewScorer creates a Scorer.
// The threshold must lie in [0, 1] and the schema length must match the number
// of features the model expects.
func NewScorer(m model.Model, threshold float64, schema Schema) (*Scorer, error) {
	if m == nil {
		return nil, fmt.Errorf("scorer: model must be provided")
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("scorer: threshold %v outside [0, 1]", threshold)
	}
	if schema.Len() != m.NumFeatures() {
		return nil, fmt.Errorf("scorer: schema has %d features, model expects %d", schema.Len(), m.NumFeatures())
	}

	return &Scorer{model: m, threshold: threshold, schema: schema}, nil
}
