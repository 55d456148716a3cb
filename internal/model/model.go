package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	TypeTree       = "tree"
	TypeExpression = "expression"
)

// Model is a pre-fit binary classifier.
// PredictProba receives a vector whose positions follow the feature schema the
// model was fit on and returns the probability mass of the positive (fraud) class.
// Implementations are immutable after construction and safe for concurrent use.
type Model interface {
	PredictProba(x []float64) (float64, error)
	NumFeatures() int
}

// Artifact is the serialized form of a model.
// Type selects the implementation; the remaining fields are read by that implementation only.
type Artifact struct {
	// Type — model kind: tree or expression.
	Type string `yaml:"type"`
	// NFeatures — length of the input vector the model was fit on.
	NFeatures int `yaml:"n_features"`
	// TreeSpec — decision tree arrays, used when Type is tree.
	TreeSpec `yaml:",inline"`
	// Expression — CEL expression over x, used when Type is expression.
	Expression string `yaml:"expression"`
}

// Parse decodes a model artifact (YAML or JSON) and builds the model it describes.
func Parse(content []byte) (Model, error) {
	var artifact Artifact
	if err := yaml.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	if artifact.NFeatures <= 0 {
		return nil, errors.New("model: n_features must be positive")
	}

	switch artifact.Type {
	case TypeTree:
		return NewTree(artifact.NFeatures, artifact.TreeSpec)
	case TypeExpression:
		return NewExpression(artifact.NFeatures, artifact.Expression)
	case "":
		return nil, errors.New("model: type must be specified")
	default:
		return nil, fmt.Errorf("model: unsupported type '%s'", artifact.Type)
	}
}

// LoadFromFile reads and parses a model artifact from disk.
func LoadFromFile(file string) (Model, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return Parse(content)
}
