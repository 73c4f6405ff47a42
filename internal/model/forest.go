package model

import (
	"context"

	"codeberg.org/mutker/faultwatch/internal/errors"
)

// Forest evaluates a random forest locally. Each tree contributes its
// normalized leaf weights; the class with the highest mean wins and ties
// go to the class declared first.
type Forest struct {
	features []string
	classes  []string
	trees    []Tree
}

// NewForest builds a Forest from a validated artifact.
func NewForest(a *Artifact) (*Forest, error) {
	if err := a.Validate(true); err != nil {
		return nil, err
	}
	return &Forest{
		features: append([]string(nil), a.Features...),
		classes:  append([]string(nil), a.Classes...),
		trees:    a.Trees,
	}, nil
}

func (f *Forest) Features() []string {
	return append([]string(nil), f.features...)
}

// Classes returns the labels the forest can produce.
func (f *Forest) Classes() []string {
	return append([]string(nil), f.classes...)
}

func (f *Forest) Predict(ctx context.Context, rows [][]float64) ([]string, error) {
	errFactory := errors.New()

	labels := make([]string, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, errFactory.Wrap(ErrCanceled, err)
		}
		if len(row) != len(f.features) {
			return nil, errFactory.WithData(ErrShapeMismatch, struct {
				Row  int
				Got  int
				Want int
			}{
				Row:  i,
				Got:  len(row),
				Want: len(f.features),
			})
		}
		labels[i] = f.classes[f.vote(row)]
	}

	return labels, nil
}

func (f *Forest) vote(row []float64) int {
	scores := make([]float64, len(f.classes))
	for _, tree := range f.trees {
		leaf := tree.walk(row)
		var total float64
		for _, v := range leaf.Value {
			total += v
		}
		if total <= 0 {
			continue
		}
		for c, v := range leaf.Value {
			scores[c] += v / total
		}
	}

	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return best
}

func (t Tree) walk(row []float64) Node {
	node := t.Nodes[0]
	for !node.leaf() {
		if row[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node
}
