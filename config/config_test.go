package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_JSONWithDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
        "source": {"kind": "csv", "csv_dir": "testdata"}
    }`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Optimizer.BufferMinutes)
	require.Equal(t, 3, cfg.Optimizer.Passes)
	require.Equal(t, "rules", cfg.Prediction.Mode)
	require.Equal(t, "2112", cfg.Metrics.PrometheusPort)
	require.Equal(t, "none", cfg.RunLog.Kind)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
optimizer:
  passes: 5
  buffer_minutes: 20
source:
  kind: csv
  csv_dir: testdata
runlog:
  kind: jsonl
  path: runs.jsonl
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Optimizer.Passes)
	require.Equal(t, 20, cfg.Optimizer.BufferMinutes)
	require.Equal(t, "jsonl", cfg.RunLog.Kind)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("K_SOURCE__CSV_DIR", "/tmp/fixtures")
	path := writeConfig(t, "config.json", `{"source": {"kind": "csv", "csv_dir": "testdata"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/fixtures", cfg.Source.CSVDir)
}

func TestLoad_RejectsUnknownSource(t *testing.T) {
	path := writeConfig(t, "config.json", `{"source": {"kind": "ftp"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", `x = 1`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_BlendRequiresStaticPath(t *testing.T) {
	path := writeConfig(t, "config.json", `{
        "source": {"kind": "csv", "csv_dir": "testdata"},
        "prediction": {"mode": "blend"}
    }`)
	_, err := Load(path)
	require.Error(t, err)
}
