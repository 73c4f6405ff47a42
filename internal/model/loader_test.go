package model_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/model"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input   *s3.GetObjectInput
	content []byte
	err     error
}

func (f *fakeS3) GetObjectWithContext(
	_ aws.Context, input *s3.GetObjectInput, _ ...request.Option,
) (*s3.GetObjectOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.content))}, nil
}

func TestLoadForestFromFile(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Path = "testdata/forest.json"

	m, err := model.NewLoader(cfg).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "transformer-faults", m.Name)
	assert.Equal(t, "2024.11", m.Version)
	assert.Equal(t, 3, m.Causes.Len())
	assert.IsType(t, &model.Forest{}, m.Classifier)
	assert.Equal(t, "temp", m.Classifier.Features()[6])
}

func TestLoadForestFromS3(t *testing.T) {
	content, err := os.ReadFile("testdata/forest.json")
	require.NoError(t, err)

	api := &fakeS3{content: content}
	cfg := model.DefaultConfig()
	cfg.S3Bucket = "models"
	cfg.S3Key = "faults/forest.json"

	m, err := model.NewLoader(cfg, model.WithS3(api)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "models", aws.StringValue(api.input.Bucket))
	assert.Equal(t, "faults/forest.json", aws.StringValue(api.input.Key))
	cause, ok := m.Causes.Lookup("Overload")
	assert.True(t, ok)
	assert.Equal(t, "Sustained load above rated capacity", cause)
}

func TestLoadS3Failure(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.S3Bucket = "models"
	cfg.S3Key = "missing.json"

	_, err := model.NewLoader(cfg, model.WithS3(&fakeS3{err: stderrors.New("NoSuchKey")})).
		Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, model.ErrArtifactRead))
	assert.Contains(t, err.Error(), "NoSuchKey")
}

func TestLoadSageMakerBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	manifest := `{
		"name": "remote",
		"version": "1",
		"features": ["voltage", "current", "power", "energy", "frequency", "power_factor", "temperature"],
		"fault_cause_mapping": {"Overload": "Sustained load above rated capacity"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	cfg := model.Config{
		Backend:  model.BackendSageMaker,
		Path:     path,
		Endpoint: "transformer-faults",
		Region:   "eu-west-1",
	}
	runtime := &fakeRuntime{body: []byte(`{"predictions":[{"label":"Overload"}]}`)}

	m, err := model.NewLoader(cfg, model.WithRuntime(runtime)).Load(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &model.Endpoint{}, m.Classifier)

	labels, err := m.Classifier.Predict(context.Background(), [][]float64{{1, 2, 3, 4, 5, 6, 7}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Overload"}, labels)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "absent.json")

	_, err := model.NewLoader(cfg).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, model.ErrArtifactRead))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   model.Config
		valid bool
	}{
		{"default", model.DefaultConfig(), true},
		{"unknown backend", model.Config{Backend: "onnx", Path: "m.json"}, false},
		{"sagemaker without endpoint", model.Config{Backend: model.BackendSageMaker, Path: "m.json", Region: "eu-west-1"}, false},
		{"empty path", model.Config{Backend: model.BackendForest}, false},
		{"bucket without key", model.Config{Backend: model.BackendForest, S3Bucket: "b", Region: "eu-west-1"}, false},
		{"s3 without region", model.Config{Backend: model.BackendForest, S3Bucket: "b", S3Key: "k"}, false},
		{"s3", model.Config{Backend: model.BackendForest, S3Bucket: "b", S3Key: "k", Region: "eu-west-1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
