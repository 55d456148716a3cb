package score

import "fmt"

// MissingFeatureError is returned when a record lacks a feature required by the schema.
// Feature names the first absent field in schema order.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("Missing feature '%s'", e.Feature)
}

// NewMissingFeatureError creates a MissingFeatureError for the given feature.
func NewMissingFeatureError(feature string) *MissingFeatureError {
	return &MissingFeatureError{Feature: feature}
}

// InvalidFeatureError is returned when a feature value cannot be used as a number:
// null, a non-numeric string, a list, an object, NaN or infinity.
type InvalidFeatureError struct {
	Feature string
	Value   any
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("Invalid value for feature '%s'", e.Feature)
}

// NewInvalidFeatureError creates an InvalidFeatureError for the given feature and raw value.
func NewInvalidFeatureError(feature string, value any) *InvalidFeatureError {
	return &InvalidFeatureError{Feature: feature, Value: value}
}

// ModelError wraps a failure of the model itself, including a probability outside [0, 1].
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return "model error: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ItemError attributes a record failure to its position in a batch.
// Index is zero-based.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
