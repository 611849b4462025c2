package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxel-streamer/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("STREAMER_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Streamer.ViewDistance)
	assert.Equal(t, "perlin", cfg.Terrain.Kind)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
streamer:
  view_distance: 3
  workers: 5
terrain:
  kind: simplex
  seed: 99
logging:
  level: debug
  components:
    workers: trace
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Streamer.ViewDistance)
	assert.Equal(t, 5, cfg.Streamer.WorkerCount())
	assert.Equal(t, world.DefaultSeaLevel, cfg.Streamer.SeaLevel, "незаданные поля сохраняют дефолт")
	assert.Equal(t, "simplex", cfg.Terrain.Kind)
	assert.Equal(t, int64(99), cfg.Terrain.Seed)
	assert.Equal(t, 0.01, cfg.Terrain.Scale)
	assert.Equal(t, map[string]string{"workers": "trace"}, cfg.Logging.Components)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "streamer:\n  view_distance: 2\n")
	t.Setenv("STREAMER_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Streamer.ViewDistance)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "streamer:\n  view_distance: 0\n"))
	assert.ErrorIs(t, err, world.ErrInvalidViewDistance)

	_, err = Load(writeConfig(t, "terrain:\n  kind: cubes\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  components:\n    workers: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "streamer: [1, 2"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWorkerCountFromCPU(t *testing.T) {
	s := StreamerConfig{}
	assert.GreaterOrEqual(t, s.WorkerCount(), 1)
}

func TestRESTPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("STREAMER_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("STREAMER_REST_PORT", "9100")
	assert.Equal(t, 9100, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}
