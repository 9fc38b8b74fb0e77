package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Search.MatchCeiling)
	assert.Equal(t, 50, cfg.Search.ResultLimit)
	assert.Equal(t, 40*time.Second, cfg.Synthesis.TaskTimeout)
	assert.Equal(t, 20*time.Second, cfg.Synthesis.OptimizerTimeout)
	assert.Equal(t, 50, cfg.Synthesis.TokenBudget)
	assert.Equal(t, 5, cfg.Synthesis.MaxXorGroups)
	assert.Equal(t, "none", cfg.Reporting.Sink)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
data:
  indexDir: /data/validation-index
synthesis:
  workers: 3
  taskTimeout: 10s
reporting:
  sink: kafka
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("PA_SYNTHESIS_WORKERS", "7")
	t.Setenv("PA_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/validation-index", cfg.Data.IndexDir)
	assert.Equal(t, 7, cfg.Synthesis.Workers)
	assert.Equal(t, 10*time.Second, cfg.Synthesis.TaskTimeout)
	assert.Equal(t, "kafka", cfg.Reporting.Sink)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "output/patents", cfg.Data.PatentsDir)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Reporting.Sink = "grafana"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.MatchCeiling = 10
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Synthesis.Workers = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
