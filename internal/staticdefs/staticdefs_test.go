package staticdefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDef(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMergesMultipleFilesByType(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "gpu.yaml", `
resources:
  - name: gpu-1
    type: gpu
    data:
      device: "0"
  - name: gpu-0
    type: gpu
    default_delay: 30s
`)
	writeDef(t, dir, "db.yaml", `
resources:
  - name: db-1
    type: database
`)

	defs, err := Load(dir)
	require.NoError(t, err)

	gpus := defs.ResourcesForType("gpu")
	require.Len(t, gpus, 2)
	assert.Equal(t, "gpu-0", gpus[0].Name, "sorted by name")
	assert.Equal(t, "gpu-1", gpus[1].Name)
	assert.Equal(t, 30*time.Second, gpus[0].DefaultDelay)
	assert.Equal(t, "0", gpus[1].Data["device"])

	dbs := defs.ResourcesForType("database")
	require.Len(t, dbs, 1)
	assert.Equal(t, "db-1", dbs[0].Name)
}

func TestLoadMissingDirIsEmptyNotError(t *testing.T) {
	defs, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, defs.ByType)
}

func TestLoadRejectsEntryMissingNameOrType(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "bad.yaml", `
resources:
  - name: ""
    type: gpu
`)
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidDelay(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "bad.yaml", `
resources:
  - name: gpu-1
    type: gpu
    default_delay: not-a-duration
`)
	_, err := Load(dir)
	assert.Error(t, err)
}
