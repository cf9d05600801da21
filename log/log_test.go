package log

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRateLimits(t *testing.T) {
	e := NewEvery(50 * time.Millisecond)

	assert.True(t, e.ShouldLog())
	assert.False(t, e.ShouldLog())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, e.ShouldLog())
	assert.False(t, e.ShouldLog())
}

func TestInitializeWritesToLogFile(t *testing.T) {
	orig := logFileName
	logFileName = filepath.Join(t.TempDir(), "batchrunner.log")
	defer func() {
		logFileName = orig
		discard := log.New(io.Discard, "", 0)
		InfoLog, WarningLog, ErrorLog, DebugLog = discard, discard, discard, discard
	}()

	Initialize()
	InfoLog.Printf("hello from the logger")
	Close()

	data, err := os.ReadFile(logFileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the logger")
	assert.Contains(t, string(data), "INFO:")
}

func TestIsDebugEnabledMatchesEnv(t *testing.T) {
	want := os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1"
	assert.Equal(t, want, IsDebugEnabled())
}
