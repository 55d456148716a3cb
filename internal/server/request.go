package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fraud/internal/score"
)

// MalformedRequestError — the request body does not have the {"items": [{...}, ...]} shape.
// Returned before any item is scored.
type MalformedRequestError struct {
	message string
}

func (e *MalformedRequestError) Error() string {
	return e.message
}

// NewMalformedRequestError creates a MalformedRequestError with the given description.
func NewMalformedRequestError(message string) *MalformedRequestError {
	return &MalformedRequestError{message: message}
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Items *[]score.Record `json:"items"`
}

// PredictResponse is the body of a successful POST /predict.
// Predictions follow the order of the request items.
type PredictResponse struct {
	Predictions []score.Outcome `json:"predictions"`
}

// decodePredictRequest parses a batch of records.
// Numbers are kept as json.Number so that no precision is lost before scoring.
// maxItems <= 0 disables the item limit.
func decodePredictRequest(body io.Reader, maxItems int) ([]score.Record, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var request PredictRequest
	if err := decoder.Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, NewMalformedRequestError("request body must be a JSON object with an items list: " + err.Error())
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, NewMalformedRequestError("request body must contain a single JSON object")
	}

	if request.Items == nil {
		return nil, NewMalformedRequestError("items: must be specified")
	}

	records := *request.Items
	if maxItems > 0 && len(records) > maxItems {
		return nil, NewMalformedRequestError(fmt.Sprintf("items: at most %d items are allowed, got %d", maxItems, len(records)))
	}

	for i, record := range records {
		if record == nil {
			return nil, NewMalformedRequestError(fmt.Sprintf("items[%d]: must be an object", i))
		}
	}

	return records, nil
}
