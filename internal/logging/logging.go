// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	// Level is debug, info, warn or error. Unknown values mean warn.
	Level string
	// Verbose forces the debug level.
	Verbose bool
	// Stderr receives console records.
	Stderr io.Writer

	// File, when set, also receives every record in logfmt, rotated by
	// size.
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Setup builds the logger described by opts and installs it as the slog
// default. The returned closer releases the log file, if any.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	level := ParseLevel(opts.Level, slog.LevelWarn)
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := log.NewWithOptions(opts.Stderr, log.Options{
		Prefix: "shovel",
		Level:  log.Level(level),
	})

	var (
		handler slog.Handler = console
		closer  io.Closer    = nopCloser{}
	)
	if strings.TrimSpace(opts.File) != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		handler = Fanout(console, slog.NewTextHandler(file, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}))
		closer = file
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer
}

// ParseLevel maps a level name, or a numeric slog level, to a slog.Level.
func ParseLevel(value string, defaultLevel slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return defaultLevel
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return slog.Level(n)
	}
	return defaultLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
