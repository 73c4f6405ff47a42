package model

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/faultwatch/internal/errors"
)

// Artifact is the on-disk form of a trained model. Trees are only
// required for the forest backend; a remote backend uses the artifact for
// its schema and cause mapping.
type Artifact struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	Features          []string          `json:"features"`
	Classes           []string          `json:"classes"`
	Trees             []Tree            `json:"trees"`
	FaultCauseMapping map[string]string `json:"fault_cause_mapping"`
}

// Tree is a flattened binary decision tree. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Feature >= 0 and a leaf otherwise. Rows with
// row[Feature] <= Threshold go Left. Leaves carry per-class weights.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) leaf() bool {
	return n.Feature < 0
}

// DecodeArtifact reads a JSON artifact from r.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, errors.New().Wrap(ErrArtifactDecode, err)
	}
	return &a, nil
}

// Validate checks the artifact's internal consistency. requireTrees is
// set for backends that evaluate the trees locally.
func (a *Artifact) Validate(requireTrees bool) error {
	errFactory := errors.New()
	invalid := func(format string, args ...any) error {
		return errFactory.WithData(ErrInvalidArtifact, fmt.Sprintf(format, args...))
	}

	if len(a.Features) == 0 {
		return invalid("no features declared")
	}
	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		key := strings.ToLower(strings.TrimSpace(f))
		if key == "" {
			return invalid("empty feature name")
		}
		if seen[key] {
			return invalid("duplicate feature %q", f)
		}
		seen[key] = true
	}

	if !requireTrees {
		return nil
	}

	if len(a.Classes) == 0 {
		return invalid("no classes declared")
	}
	if len(a.Trees) == 0 {
		return invalid("no trees")
	}

	for ti, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return invalid("tree %d has no nodes", ti)
		}
		for ni, node := range tree.Nodes {
			if node.leaf() {
				if len(node.Value) != len(a.Classes) {
					return invalid("tree %d node %d: leaf has %d values, want %d",
						ti, ni, len(node.Value), len(a.Classes))
				}
				continue
			}
			if node.Feature >= len(a.Features) {
				return invalid("tree %d node %d: feature index %d out of range", ti, ni, node.Feature)
			}
			// Children must come after their parent, which rules out cycles.
			for _, child := range []int{node.Left, node.Right} {
				if child <= ni || child >= len(tree.Nodes) {
					return invalid("tree %d node %d: child index %d out of range", ti, ni, child)
				}
			}
		}
	}

	return nil
}

// UnmappedClasses returns classes that have no cause in the mapping.
func (a *Artifact) UnmappedClasses() []string {
	var missing []string
	for _, c := range a.Classes {
		if _, ok := a.FaultCauseMapping[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
