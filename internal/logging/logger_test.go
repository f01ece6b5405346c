package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := CurrentLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("Debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestThrottledSuppresses(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelDebug)

	th := NewThrottled(LevelWarn, time.Hour, 2)
	written := 0
	for i := 0; i < 10; i++ {
		if th.Printf("fault %d", i) {
			written++
		}
	}
	assert.Equal(t, 2, written)
	assert.EqualValues(t, 8, th.Suppressed())
	assert.Equal(t, 2, strings.Count(buf.String(), "fault"))
}
