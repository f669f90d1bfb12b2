// Package log provides structured logging utilities shared by every
// subsystem of the orchestration kernel.
package log

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	baseMu   sync.RWMutex
	base     zerolog.Logger
	initOnce sync.Once
)

func initBase() {
	level := zerolog.InfoLevel
	if lv := os.Getenv("KOMPOSER_LOG_LEVEL"); lv != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(lv)); err == nil {
			level = parsed
		}
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	if strings.EqualFold(os.Getenv("KOMPOSER_LOG_FORMAT"), "json") {
		base = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
		return
	}
	base = zerolog.New(writer).With().Timestamp().Logger().Level(level)
}

// Base returns the process-wide base logger.
func Base() zerolog.Logger {
	initOnce.Do(initBase)
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// SetBase overrides the process-wide base logger. Intended for tests and
// for cmd/ entrypoints that want a specific writer/level.
func SetBase(l zerolog.Logger) {
	initOnce.Do(func() {})
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

// L returns a pointer-free snapshot of the base logger, matching the
// teacher's log.L() convenience accessor.
func L() zerolog.Logger {
	return Base()
}

// WithComponent returns a logger tagged with the given component name.
// Every subsystem (registry, dispatcher, timeoutmgr, compiler, planexec,
// intake, hygiene) logs through its own component logger so operators can
// filter by subsystem.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
