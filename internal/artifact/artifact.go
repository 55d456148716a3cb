// Package artifact loads the static artifacts the service needs before it can serve:
// the fitted model, the decision threshold and the ordered feature list.
// Files are YAML or JSON.
package artifact

import (
	"errors"
	"fmt"
	"math"
	"os"

	"fraud/internal/model"
	"fraud/internal/score"

	"gopkg.in/yaml.v3"
)

const (
	ArtifactModel     = "model"
	ArtifactThreshold = "threshold"
	ArtifactFeatures  = "features"
)

// StartupLoadError reports an artifact that is missing, unreadable or corrupt.
// The process must not start serving when it occurs.
type StartupLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *StartupLoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %s", e.Artifact, e.Path, e.Err)
}

func (e *StartupLoadError) Unwrap() error {
	return e.Err
}

// NewStartupLoadError creates a StartupLoadError for the named artifact.
func NewStartupLoadError(artifact, path string, err error) *StartupLoadError {
	return &StartupLoadError{Artifact: artifact, Path: path, Err: err}
}

// Paths locates the three artifacts on disk.
type Paths struct {
	Model     string
	Threshold string
	Features  string
}

// Artifacts is the immutable state shared by all requests for the process lifetime.
type Artifacts struct {
	Model     model.Model
	Threshold float64
	Schema    score.Schema
}

// Load reads all three artifacts and checks that they agree with each other.
// Every failure is a StartupLoadError.
func Load(paths Paths) (*Artifacts, error) {
	m, err := model.LoadFromFile(paths.Model)
	if err != nil {
		return nil, NewStartupLoadError(ArtifactModel, paths.Model, err)
	}

	threshold, err := LoadThreshold(paths.Threshold)
	if err != nil {
		return nil, NewStartupLoadError(ArtifactThreshold, paths.Threshold, err)
	}

	schema, err := LoadFeatures(paths.Features)
	if err != nil {
		return nil, NewStartupLoadError(ArtifactFeatures, paths.Features, err)
	}

	if schema.Len() != m.NumFeatures() {
		err := fmt.Errorf("%d features listed, model expects %d", schema.Len(), m.NumFeatures())
		return nil, NewStartupLoadError(ArtifactFeatures, paths.Features, err)
	}

	return &Artifacts{Model: m, Threshold: threshold, Schema: schema}, nil
}

// LoadThreshold reads a single number in [0, 1].
func LoadThreshold(file string) (float64, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return 0, err
	}

	var threshold *float64
	if err := yaml.Unmarshal(content, &threshold); err != nil {
		return 0, err
	}
	if threshold == nil {
		return 0, errors.New("threshold is empty")
	}
	if math.IsNaN(*threshold) || *threshold < 0 || *threshold > 1 {
		return 0, fmt.Errorf("threshold %v outside [0, 1]", *threshold)
	}

	return *threshold, nil
}

// LoadFeatures reads the ordered list of feature names.
func LoadFeatures(file string) (score.Schema, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return score.Schema{}, err
	}

	var names []string
	if err := yaml.Unmarshal(content, &names); err != nil {
		return score.Schema{}, err
	}

	return score.NewSchema(names)
}
