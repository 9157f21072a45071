package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SATURN_ENV", "SATURN_WORKER_MANAGER_URL", "SATURN_WORKER__EXECUTOR_CLS",
		"SATURN_WORKER__EXECUTOR_OPTIONS",
		"SATURN_WORK_ITEMS_PER_WORKER", "SATURN_SYNC_INTERVAL",
		"SATURN_STATIC_DEFINITIONS_DIR", "SATURN_STATIC_DEFINITIONS_JOBS_SELECTOR",
		"SATURN_METRICS_ADDR", "SATURN_LOG_LEVEL", "SATURN_LOG_JSON",
	} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := Load()
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "http://localhost:5000", cfg.ControlPlaneURL)
	assert.Equal(t, "ProcessExecutor", cfg.ExecutorClass)
	assert.Empty(t, cfg.ExecutorOptions)
	assert.Equal(t, 10, cfg.WorkItemsPerWorker)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, "/opt/saturn/definitions", cfg.StaticDefinitionsDir)
	assert.Empty(t, cfg.StaticDefinitionsFilter)
	assert.True(t, cfg.LogJSON)
}

func TestLoadExecutorOptions(t *testing.T) {
	t.Setenv("SATURN_WORKER__EXECUTOR_OPTIONS", "command=python3 -m worker.run,image=registry.internal/saturn-worker:latest")

	cfg := Load()
	assert.Equal(t, map[string]string{
		"command": "python3 -m worker.run",
		"image":   "registry.internal/saturn-worker:latest",
	}, cfg.ExecutorOptions)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SATURN_ENV", "production")
	t.Setenv("SATURN_WORKER_MANAGER_URL", "https://controlplane.internal")
	t.Setenv("SATURN_WORK_ITEMS_PER_WORKER", "25")
	t.Setenv("SATURN_SYNC_INTERVAL", "5s")
	t.Setenv("SATURN_LOG_JSON", "false")

	cfg := Load()
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "https://controlplane.internal", cfg.ControlPlaneURL)
	assert.Equal(t, 25, cfg.WorkItemsPerWorker)
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.False(t, cfg.LogJSON)
}

func TestLoadInvalidOverridesFallBack(t *testing.T) {
	t.Setenv("SATURN_WORK_ITEMS_PER_WORKER", "not-a-number")
	t.Setenv("SATURN_SYNC_INTERVAL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 10, cfg.WorkItemsPerWorker)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
}
