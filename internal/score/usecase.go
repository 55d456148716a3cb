package score

import "context"

// RecordScorer scores a single record.
type RecordScorer interface {
	Score(r Record) (Result, error)
}

// BatchScorer scores records in submission order.
type BatchScorer interface {
	Score(ctx context.Context, records []Record) ([]Outcome, error)
}

// Observer receives every outcome produced by a Batch.
type Observer interface {
	Observe(o Outcome)
}
