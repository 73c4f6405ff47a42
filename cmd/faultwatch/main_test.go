package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/faultwatch/internal/config"
	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/inference"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/monitor"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `{"feeds": [{"field1": "230.5", "field2": "12", "field3": "1500",
	"field4": "3.2", "field5": "50", "field6": "0.95", "field7": "45.2"}]}`

type emptySource struct{}

func (emptySource) Fetch(_ context.Context) (map[string]*string, error) {
	return map[string]*string{}, nil
}

type failingPredictor struct{}

func (failingPredictor) Predict(_ context.Context, _ telemetry.Reading) (inference.Prediction, error) {
	return inference.Prediction{}, stderrors.New("endpoint timeout")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faultwatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func forestPath(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "internal", "model", "testdata", "forest.json"))
	require.NoError(t, err)
	return path
}

func TestRunInvalidConfig(t *testing.T) {
	assert.Equal(t, 1, run([]string{"--interval", "0"}))
}

func TestRunRemovesPIDFileOnInitFailure(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "faultwatch.pid")
	cfgPath := writeConfig(t, fmt.Sprintf(`
listen = ""
pid_file = %q

[model]
path = %q
`, pidPath, filepath.Join(dir, "missing.json")))

	assert.Equal(t, 1, run([]string{"--config", cfgPath}))

	_, err := os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err), "PID file left behind")
}

func TestRunOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	t.Cleanup(srv.Close)

	cfgPath := writeConfig(t, fmt.Sprintf(`
[source]
url = %q

[model]
path = %q
`, srv.URL, forestPath(t)))

	assert.Equal(t, 0, run([]string{"--config", cfgPath, "--once"}))
}

func TestAppRunOnceInferenceFailure(t *testing.T) {
	var out bytes.Buffer
	a := &app{
		cfg:     &config.Config{Once: true, Interval: 1},
		monitor: monitor.New(emptySource{}, failingPredictor{}, monitor.WithLogger(logger.Nop())),
		out:     &out,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := a.run(ctx, cancel)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMainLoop))
	assert.ErrorContains(t, err, "endpoint timeout")
	assert.Contains(t, out.String(), "warning: Inference failed and no earlier prediction is available")
}
