package model

import (
	"errors"
	"fmt"
)

// leaf marks an absent child in the children arrays.
const leaf = -1

// TreeSpec is the array layout of a fitted CART classifier.
// Node i is a leaf when both children are -1; otherwise a sample goes to
// ChildrenLeft[i] if x[Feature[i]] <= Threshold[i] and to ChildrenRight[i] otherwise.
// Value[i] holds the per-class weights of node i, in Classes order.
type TreeSpec struct {
	ChildrenLeft  []int       `yaml:"children_left"`
	ChildrenRight []int       `yaml:"children_right"`
	Feature       []int       `yaml:"feature"`
	Threshold     []float64   `yaml:"threshold"`
	Value         [][]float64 `yaml:"value"`
	// Classes — class labels; defaults to [0, 1].
	Classes []int `yaml:"classes"`
	// PositiveClass — label whose probability is reported; defaults to 1.
	PositiveClass *int `yaml:"positive_class"`
}

// Tree is a decision tree classifier.
// Leaf probabilities of the positive class are computed once at construction.
type Tree struct {
	nFeatures int
	left      []int
	right     []int
	feature   []int
	threshold []float64
	proba     []float64
}

// NewTree validates spec and builds a tree accepting vectors of length nFeatures.
// Children must have a greater index than their parent, which rules out cycles.
func NewTree(nFeatures int, spec TreeSpec) (*Tree, error) {
	n := len(spec.ChildrenLeft)
	if n == 0 {
		return nil, errors.New("tree: no nodes")
	}
	if len(spec.ChildrenRight) != n || len(spec.Feature) != n || len(spec.Threshold) != n || len(spec.Value) != n {
		return nil, fmt.Errorf("tree: node arrays must all have length %d", n)
	}

	classes := spec.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	positive := 1
	if spec.PositiveClass != nil {
		positive = *spec.PositiveClass
	}
	positiveIdx := -1
	for i, c := range classes {
		if c == positive {
			positiveIdx = i
			break
		}
	}
	if positiveIdx < 0 {
		return nil, fmt.Errorf("tree: positive class %d not in classes %v", positive, classes)
	}

	tree := Tree{
		nFeatures: nFeatures,
		left:      spec.ChildrenLeft,
		right:     spec.ChildrenRight,
		feature:   spec.Feature,
		threshold: spec.Threshold,
		proba:     make([]float64, n),
	}

	for i := 0; i < n; i++ {
		l, r := spec.ChildrenLeft[i], spec.ChildrenRight[i]
		if l == leaf && r == leaf {
			p, err := positiveProba(spec.Value[i], len(classes), positiveIdx)
			if err != nil {
				return nil, fmt.Errorf("tree: node %d: %w", i, err)
			}
			tree.proba[i] = p
			continue
		}

		if l <= i || r <= i || l >= n || r >= n {
			return nil, fmt.Errorf("tree: node %d has invalid children (%d, %d)", i, l, r)
		}
		if f := spec.Feature[i]; f < 0 || f >= nFeatures {
			return nil, fmt.Errorf("tree: node %d splits on feature %d, model has %d features", i, f, nFeatures)
		}
	}

	return &tree, nil
}

func positiveProba(weights []float64, nClasses, positiveIdx int) (float64, error) {
	if len(weights) != nClasses {
		return 0, fmt.Errorf("expected %d class weights, got %d", nClasses, len(weights))
	}
	var total float64
	for _, w := range weights {
		if w < 0 {
			return 0, errors.New("negative class weight")
		}
		total += w
	}
	if total == 0 {
		return 0, errors.New("leaf has no weight")
	}
	return weights[positiveIdx] / total, nil
}

// PredictProba walks the tree from the root to a leaf and returns the leaf's positive class probability.
func (t *Tree) PredictProba(x []float64) (float64, error) {
	if len(x) != t.nFeatures {
		return 0, fmt.Errorf("tree: expected %d features, got %d", t.nFeatures, len(x))
	}

	node := 0
	for t.left[node] != leaf {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}

	return t.proba[node], nil
}

func (t *Tree) NumFeatures() int {
	return t.nFeatures
}
