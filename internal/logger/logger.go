// Package logger provides application-wide logging helpers backed by hclog.
package logger

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

var root = hclog.New(&hclog.LoggerOptions{
	Name:   "discobase",
	Level:  levelFromEnv(),
	Output: os.Stderr,
})

func levelFromEnv() hclog.Level {
	if raw := os.Getenv("DISCOBASE_LOG_LEVEL"); raw != "" {
		if lvl := hclog.LevelFromString(raw); lvl != hclog.NoLevel {
			return lvl
		}
	}
	return hclog.Info
}

// Info logs informational messages
func Info(format string, args ...interface{}) {
	root.Info(fmt.Sprintf(format, args...))
}

// Warn logs warning messages
func Warn(format string, args ...interface{}) {
	root.Warn(fmt.Sprintf(format, args...))
}

// Error logs error messages
func Error(format string, args ...interface{}) {
	root.Error(fmt.Sprintf(format, args...))
}

// Debug logs debug messages
func Debug(format string, args ...interface{}) {
	root.Debug(fmt.Sprintf(format, args...))
}
