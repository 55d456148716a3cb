package model

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Expression is a model defined by a CEL expression.
// The input vector is bound to the variable x (list of double); the expression must yield a double.
//
// Example:
//
//	x[0] > 1000.0 && x[1] < 6.0 ? 0.9 : 0.05
type Expression struct {
	nFeatures int
	source    string
	program   cel.Program
}

// NewExpressionEnv returns the CEL environment expression models are compiled in.
func NewExpressionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("x", cel.ListType(cel.DoubleType)),
	)
}

// NewExpression compiles source into a model accepting vectors of length nFeatures.
// Syntax errors and non-double result types are reported here rather than at prediction time.
func NewExpression(nFeatures int, source string) (*Expression, error) {
	if source == "" {
		return nil, errors.New("expression: must be specified")
	}

	env, err := NewExpressionEnv()
	if err != nil {
		return nil, err
	}

	ast, iss := env.Parse(source)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	if !checked.OutputType().IsExactType(cel.DoubleType) {
		return nil, fmt.Errorf("expression: must evaluate to double, got %s", checked.OutputType())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	return &Expression{nFeatures: nFeatures, source: source, program: program}, nil
}

// PredictProba evaluates the expression against x.
// Runtime errors (for example an index beyond the vector) are returned as is.
func (e *Expression) PredictProba(x []float64) (float64, error) {
	if len(x) != e.nFeatures {
		return 0, fmt.Errorf("expression: expected %d features, got %d", e.nFeatures, len(x))
	}

	result, _, err := e.program.Eval(map[string]any{"x": x})
	if err != nil {
		return 0, err
	}

	p, ok := result.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("expression: unexpected result %v", result.Value())
	}

	return p, nil
}

func (e *Expression) NumFeatures() int {
	return e.nFeatures
}

func (e *Expression) String() string {
	return e.source
}
