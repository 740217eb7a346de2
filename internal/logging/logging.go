// Package logging sets up the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init points the global logger at a console writer on stderr and, when file
// is set, a rotating log file. Extra writers are appended.
func Init(level, file string, writers ...io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	logWriters := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		logWriters = append(logWriters, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    1,
			MaxBackups: 2,
		})
	}
	logWriters = append(logWriters, writers...)

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(io.MultiWriter(logWriters...)).
		With().Timestamp().Logger()
	return nil
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
}
