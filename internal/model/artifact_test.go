package model_test

import (
	"strings"
	"testing"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validArtifact() *model.Artifact {
	return &model.Artifact{
		Features: []string{"voltage", "temp"},
		Classes:  []string{"Normal", "Overheating"},
		Trees: []model.Tree{{Nodes: []model.Node{
			{Feature: 1, Threshold: 80, Left: 1, Right: 2},
			{Feature: -1, Value: []float64{1, 0}},
			{Feature: -1, Value: []float64{0, 1}},
		}}},
	}
}

func TestArtifactValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *model.Artifact)
		reason string
	}{
		{"no features", func(a *model.Artifact) { a.Features = nil }, "no features"},
		{"duplicate feature", func(a *model.Artifact) { a.Features = []string{"temp", "Temp"} }, "duplicate feature"},
		{"empty feature", func(a *model.Artifact) { a.Features = []string{"voltage", " "} }, "empty feature"},
		{"no classes", func(a *model.Artifact) { a.Classes = nil }, "no classes"},
		{"no trees", func(a *model.Artifact) { a.Trees = nil }, "no trees"},
		{"empty tree", func(a *model.Artifact) { a.Trees[0].Nodes = nil }, "has no nodes"},
		{"short leaf", func(a *model.Artifact) { a.Trees[0].Nodes[1].Value = []float64{1} }, "leaf has 1 values"},
		{"feature out of range", func(a *model.Artifact) { a.Trees[0].Nodes[0].Feature = 5 }, "feature index 5"},
		{"backward child", func(a *model.Artifact) { a.Trees[0].Nodes[0].Left = 0 }, "child index 0"},
		{"child past end", func(a *model.Artifact) { a.Trees[0].Nodes[0].Right = 9 }, "child index 9"},
	}

	require.NoError(t, validArtifact().Validate(true))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(a)

			err := a.Validate(true)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, model.ErrInvalidArtifact))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestArtifactValidateWithoutTrees(t *testing.T) {
	a := &model.Artifact{Features: []string{"voltage"}}
	assert.NoError(t, a.Validate(false))
	assert.Error(t, a.Validate(true))
}

func TestDecodeArtifactRejectsUnknownFields(t *testing.T) {
	_, err := model.DecodeArtifact(strings.NewReader(`{"features":["voltage"],"weights":[1]}`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, model.ErrArtifactDecode))

	_, err = model.DecodeArtifact(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestUnmappedClasses(t *testing.T) {
	a := loadArtifact(t)
	assert.Equal(t, []string{"Undervoltage"}, a.UnmappedClasses())
}

func TestCauseMappingIsCopied(t *testing.T) {
	src := map[string]string{"Overload": "Sustained load above rated capacity"}
	causes := model.NewCauseMapping(src)
	src["Overload"] = "changed"
	src["X9"] = "added"

	cause, ok := causes.Lookup("Overload")
	assert.True(t, ok)
	assert.Equal(t, "Sustained load above rated capacity", cause)

	_, ok = causes.Lookup("X9")
	assert.False(t, ok)
	assert.Equal(t, 1, causes.Len())

	var zero model.CauseMapping
	_, ok = zero.Lookup("anything")
	assert.False(t, ok)
}
