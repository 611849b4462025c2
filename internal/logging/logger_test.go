package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestWriterLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("mesh", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("чанк %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [mesh] чанк 7")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("x") })
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitDefaultLogger("test", dir))
	defer func() {
		require.NoError(t, InitDefaultLogger("streamer", ""))
	}()

	Debug("в файл")
	Info("в консоль и файл")
	CloseDefault()

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [test] в файл")
	assert.Contains(t, string(data), "[INFO] [test] в консоль и файл")
}

func TestLoggerManagerReusesLoggers(t *testing.T) {
	lm := newLoggerManager()
	a := lm.MustGetLogger("beta")
	b := lm.MustGetLogger("beta")
	assert.Same(t, a, b)
	lm.MustGetLogger("alpha")
	assert.Equal(t, []string{"alpha", "beta"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("alpha", ERROR, ERROR))
	assert.Error(t, lm.SetLogLevel("missing", ERROR, ERROR))

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestLoggerManagerApplyLevels(t *testing.T) {
	lm := newLoggerManager()
	existing := lm.MustGetLogger(ComponentWorkers)

	require.NoError(t, lm.ApplyLevels(map[string]string{
		ComponentWorkers: "debug",
		ComponentRender:  "warn",
	}))
	assert.Equal(t, DEBUG, existing.minConsoleLevel, "уровень применяется к уже созданному логгеру")

	later := lm.MustGetLogger(ComponentRender)
	assert.Equal(t, WARN, later.minConsoleLevel, "и к созданному позже")

	err := lm.ApplyLevels(map[string]string{ComponentWorkers: "error", ComponentAPI: "loud"})
	assert.Error(t, err)
	assert.Equal(t, DEBUG, existing.minConsoleLevel, "при ошибке уровни не меняются")
}

func TestInitDefaultLoggerConcurrentWithLogging(t *testing.T) {
	defer func() {
		require.NoError(t, InitDefaultLogger("streamer", ""))
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Trace("чанк %d", j)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, InitDefaultLogger("reinit", ""))
	}
	wg.Wait()

	assert.Equal(t, "reinit", Default().Component())
}
