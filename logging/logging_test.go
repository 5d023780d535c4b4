package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRotatingWriter_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	w, err := NewRotatingWriter(path, 64)
	require.NoError(t, err)
	defer w.Close()

	line := bytes.Repeat([]byte("x"), 40)
	_, err = w.Write(line)
	require.NoError(t, err)
	_, err = w.Write(line)
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, backup, 80)

	_, err = w.Write([]byte("fresh"))
	require.NoError(t, err)
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(current))
}

func TestRotatingWriter_TruncatesOversizedOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("y"), 100), 0644))

	w, err := NewRotatingWriter(path, 50)
	require.NoError(t, err)
	defer w.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	logger, closer, err := New("debug", path)
	require.NoError(t, err)

	logger.Info("state upserted")
	_ = logger.Sync()
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "state upserted")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
