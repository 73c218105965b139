package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"econudge-dashboard/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ModelTypeLinear = "linear"
	ModelTypeForest = "forest"
)

// Model is the narrow contract the forecast path depends on. Implementations
// are immutable and safe for concurrent use.
type Model interface {
	Predict(rec models.FeatureRecord) (float64, error)
	Info() models.ModelInfo
}

// Artifact is the on-disk JSON form of a trained regression model.
type Artifact struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Type     string          `json:"type"`
	Features []string        `json:"features"`
	Linear   *LinearArtifact `json:"linear,omitempty"`
	Forest   *ForestArtifact `json:"forest,omitempty"`
}

type LinearArtifact struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

type ForestArtifact struct {
	Trees []TreeArtifact `json:"trees"`
}

type TreeArtifact struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is either a split (Feature/Threshold/Left/Right) or a leaf (Value).
// Samples with x[Feature] <= Threshold go Left.
type TreeNode struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// DecodeArtifact reads and validates an artifact, returning a ready model.
func DecodeArtifact(r io.Reader) (Model, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return a.Build()
}

func (a Artifact) Build() (Model, error) {
	if !slices.Equal(a.Features, models.FeatureNames) {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrIncompatibleSchema, a.Features, models.FeatureNames)
	}

	info := models.ModelInfo{Name: a.Name, Version: a.Version, Type: a.Type}

	switch a.Type {
	case ModelTypeLinear:
		if a.Linear == nil {
			return nil, errors.New("linear artifact has no linear section")
		}
		return newLinearModel(info, *a.Linear)
	case ModelTypeForest:
		if a.Forest == nil {
			return nil, errors.New("forest artifact has no forest section")
		}
		return newForestModel(info, *a.Forest)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.Type)
	}
}

type linearModel struct {
	info         models.ModelInfo
	intercept    float64
	coefficients []float64
}

func newLinearModel(info models.ModelInfo, la LinearArtifact) (*linearModel, error) {
	if len(la.Coefficients) != len(models.FeatureNames) {
		return nil, fmt.Errorf("%w: %d coefficients for %d features",
			ErrIncompatibleSchema, len(la.Coefficients), len(models.FeatureNames))
	}
	if !isFinite(la.Intercept) || slices.ContainsFunc(la.Coefficients, func(c float64) bool { return !isFinite(c) }) {
		return nil, errors.New("linear artifact contains non-finite parameters")
	}
	return &linearModel{
		info:         info,
		intercept:    la.Intercept,
		coefficients: slices.Clone(la.Coefficients),
	}, nil
}

func (m *linearModel) Predict(rec models.FeatureRecord) (float64, error) {
	y := m.intercept + floats.Dot(m.coefficients, rec.Vector())
	if !isFinite(y) {
		return 0, ErrNonFiniteOutput
	}
	return y, nil
}

func (m *linearModel) Info() models.ModelInfo { return m.info }

type forestModel struct {
	info  models.ModelInfo
	trees [][]TreeNode
}

func newForestModel(info models.ModelInfo, fa ForestArtifact) (*forestModel, error) {
	if len(fa.Trees) == 0 {
		return nil, errors.New("forest artifact has no trees")
	}
	trees := make([][]TreeNode, len(fa.Trees))
	for t, tree := range fa.Trees {
		if err := validateTree(tree.Nodes); err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		trees[t] = slices.Clone(tree.Nodes)
	}
	return &forestModel{info: info, trees: trees}, nil
}

// validateTree requires children to point strictly forward, which rules out
// cycles and bounds every walk by len(nodes).
func validateTree(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	n := len(models.FeatureNames)
	for i, node := range nodes {
		if node.Leaf {
			if !isFinite(node.Value) {
				return fmt.Errorf("node %d: non-finite leaf value", i)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= n {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.Feature)
		}
		if !isFinite(node.Threshold) {
			return fmt.Errorf("node %d: non-finite threshold", i)
		}
		for _, child := range []int{node.Left, node.Right} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("node %d: child index %d invalid", i, child)
			}
		}
	}
	return nil
}

func (m *forestModel) Predict(rec models.FeatureRecord) (float64, error) {
	x := rec.Vector()
	leaves := make([]float64, len(m.trees))
	for t, nodes := range m.trees {
		leaves[t] = walkTree(nodes, x)
	}
	y := stat.Mean(leaves, nil)
	if !isFinite(y) {
		return 0, ErrNonFiniteOutput
	}
	return y, nil
}

func (m *forestModel) Info() models.ModelInfo { return m.info }

func walkTree(nodes []TreeNode, x []float64) float64 {
	i := 0
	for !nodes[i].Leaf {
		if x[nodes[i].Feature] <= nodes[i].Threshold {
			i = nodes[i].Left
		} else {
			i = nodes[i].Right
		}
	}
	return nodes[i].Value
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
