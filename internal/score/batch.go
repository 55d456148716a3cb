package score

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Outcome is the per-item result of a batch: either a Result or the error that prevented it.
type Outcome struct {
	Result *Result
	Err    error
}

// MarshalJSON writes the result object, or {"error": "..."} for a failed item.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(map[string]string{"error": o.Err.Error()})
	}
	return json.Marshal(o.Result)
}

// Batch drives a RecordScorer over a submitted list of records.
//
// In the default mode every record gets its own outcome and a failing record does
// not affect its siblings. With failFast the first failing record aborts the batch
// and is returned as an ItemError.
type Batch struct {
	scorer   RecordScorer
	failFast bool
	observer Observer
}

// Score scores records one by one, in order, and returns exactly one outcome per record.
// Cancellation of ctx is checked between records.
func (b *Batch) Score(ctx context.Context, records []Record) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := b.scorer.Score(record)
		if err != nil {
			logItemError(i, err)
			if b.failFast {
				b.observe(Outcome{Err: err})
				return nil, &ItemError{Index: i, Err: err}
			}
			outcome := Outcome{Err: err}
			b.observe(outcome)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome := Outcome{Result: &result}
		b.observe(outcome)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (b *Batch) observe(o Outcome) {
	if b.observer != nil {
		b.observer.Observe(o)
	}
}

// logItemError reports which feature failed without logging record values.
func logItemError(index int, err error) {
	var missing *MissingFeatureError
	var invalid *InvalidFeatureError
	switch {
	case errors.As(err, &missing):
		slog.Warn("Missing feature", "item", index, "feature", missing.Feature)
	case errors.As(err, &invalid):
		slog.Warn("Invalid feature value", "item", index, "feature", invalid.Feature)
	default:
		slog.Error("Unable to score item", "item", index, "error", err)
	}
}

// NewBatch creates a batch driver.
// observer may be nil.
func NewBatch(scorer RecordScorer, failFast bool, observer Observer) *Batch {
	return &Batch{
		scorer:   scorer,
		failFast: failFast,
		observer: observer,
	}
}
