package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "FloorPlanner.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDirectory)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadConfig_ReadsFileAndKeepsMissingDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "FloorPlanner.config")
	xml := `<FloorPlanner>
  <Server><Port>9000</Port></Server>
  <Canvas><SnapThreshold>12</SnapThreshold></Canvas>
</FloorPlanner>`
	require.NoError(t, os.WriteFile(path, []byte(xml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 12.0, cfg.Canvas.SnapThreshold)
	assert.Equal(t, 100.0, cfg.Canvas.UnitsPerMeter)
	assert.Equal(t, 30, cfg.Processing.SessionTimeoutMinutes)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FloorPlanner.config")
	require.NoError(t, os.WriteFile(path, []byte("<FloorPlanner><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/srv/planner")
	t.Setenv("DB_PATH", "/srv/db/scenes.duckdb")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "FloorPlanner.config"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/planner", cfg.Storage.DataDirectory)
	assert.Equal(t, "/srv/planner/assets", cfg.Storage.AssetsDirectory)
	assert.Equal(t, "/srv/db/scenes.duckdb", cfg.Storage.DatabasePath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLogLevel_FallsBackToInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Advanced.LogLevel = "chatty"
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	cfg.Advanced.LogLevel = "WARN"
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
}

func TestEngineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.SnapThreshold = 6
	cfg.Canvas.HistoryLimit = 20
	cfg.Canvas.ZoomStep = 0
	cfg.Processing.ImageTimeoutSeconds = 2

	ec := cfg.EngineConfig()
	assert.Equal(t, 1200.0, ec.Screen.Width)
	assert.Equal(t, 6.0, ec.Interaction.SnapThreshold)
	assert.Equal(t, 20, ec.HistoryLimit)
	assert.Equal(t, 1.2, ec.Viewport.StepFactor, "zero falls back to the engine default")
	assert.Equal(t, 2*time.Second, ec.ImageTimeout)
	assert.Equal(t, 40.0, ec.Scene.ImportPadding)
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, 1500*time.Millisecond, cfg.AutosaveDelay())
	assert.Equal(t, "0.0.0.0:8089", cfg.GetServerAddr())
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(root, "data")
	cfg.Storage.AssetsDirectory = filepath.Join(root, "data", "assets")
	cfg.Storage.DatabasePath = filepath.Join(root, "db", "scenes.duckdb")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{"data", "data/assets", "db"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
