// Package logger is the process-wide logging facade for dirimport.
// It wraps a single zerolog.Logger so call sites can use printf-style
// helpers without threading a logger through every component.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable consulted by LevelFromEnv.
const EnvLevel = "DIRIMPORT_LOG_LEVEL"

var (
	mu  sync.RWMutex
	out io.Writer = os.Stderr
	log           = newLogger(os.Stderr, zerolog.InfoLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	log = newLogger(w, log.GetLevel())
}

// SetLevel sets the minimum level by name (trace, debug, info, warn, error).
// An empty name resets to info.
func SetLevel(name string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	level := zerolog.InfoLevel
	if name != "" {
		l, err := zerolog.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", name, err)
		}
		level = l
	}
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(out, level)
	return nil
}

// LevelFromEnv returns the level named by DIRIMPORT_LOG_LEVEL, or "".
func LevelFromEnv() string {
	return os.Getenv(EnvLevel)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func Tracef(format string, args ...any) { current().Trace().Msgf(format, args...) }
func Debugf(format string, args ...any) { current().Debug().Msgf(format, args...) }
func Infof(format string, args ...any)  { current().Info().Msgf(format, args...) }
func Warnf(format string, args ...any)  { current().Warn().Msgf(format, args...) }
func Errorf(format string, args ...any) { current().Error().Msgf(format, args...) }
