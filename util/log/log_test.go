//go:build !release

package log

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name     string
		fn       func()
		expected string
	}{
		{"Print", func() { Print("test print") }, "test print"},
		{"Printf", func() { Printf("test printf %d", 123) }, "test printf 123"},
		{"Println", func() { Println("test println") }, "test println"},
		{"Debug", func() { Debug("test debug") }, "[DEBUG] test debug"},
		{"Debugf", func() { Debugf("test debugf %s", "foo") }, "[DEBUG] test debugf foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestSetDebug(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	defer SetDebug(true)

	SetDebug(false)
	assert.False(t, DebugEnabled())
	Debug("hidden")
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "framer.log")

	closer, err := ToFile(path)
	require.NoError(t, err)
	defer log.SetOutput(os.Stderr)

	Printf("written to %s", "file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

// NOTE: Testing Fatal* functions requires a subprocess, which is often overkill for simple wrappers.
