package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeWritesDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := Initialize("reward_service", dir)
	l.With(zap.String("session", "s-1")).Info("hello")
	l.Sync()

	files, err := filepath.Glob(filepath.Join(dir, "reward_service_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"reward_service"`)
	assert.Contains(t, string(data), `"session":"s-1"`)
}

func TestDailyWriterRotates(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	w := newDailyWriter(dir, "svc", func() time.Time { return now })

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	day1, err := os.ReadFile(filepath.Join(dir, "svc_2026-01-01.log"))
	require.NoError(t, err)
	day2, err := os.ReadFile(filepath.Join(dir, "svc_2026-01-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(day1))
	assert.Equal(t, "second\n", string(day2))
}

func TestDebugModeToggle(t *testing.T) {
	SetNewNop()
	child := Log.With(zap.String("session", "s-1"))
	assert.False(t, Log.DebugMode())

	Log.SetDebugMode(true)
	assert.True(t, Log.DebugMode())
	assert.True(t, child.DebugMode(), "children share the switch")

	child.SetDebugMode(false)
	assert.False(t, Log.DebugMode())
}
