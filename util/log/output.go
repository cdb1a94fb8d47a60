package log

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// debugEnabled defaults to on in development builds and off in release builds.
var debugEnabled atomic.Bool

// SetDebug switches Debug and Debugf output on or off.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether Debug output is currently written.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetOutput redirects the standard logger.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func newRotator(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// ToFile tees log output into a rotating file at path as well as stderr.
// The returned closer flushes and closes the file.
func ToFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	rotator := newRotator(path)
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}
