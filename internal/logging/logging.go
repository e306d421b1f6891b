// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where log lines go.
type Options struct {
	// Level is a zerolog level name. Unknown names fall back to info.
	Level string

	// File is a log file path, rotated by size. Empty disables file logging.
	File string

	// Console receives human-readable output. Nil disables console logging.
	Console io.Writer
}

// DefaultFile returns the log file location under the user cache dir.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dvtag", "dvtag.log")
}

// Setup replaces log.Logger according to opts and returns the logger. The
// returned closer flushes and closes the log file, if any.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: "15:04:05"})
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return zerolog.Nop(), nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    1,
			MaxBackups: 2,
		}
		writers = append(writers, lj)
		closer = lj
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = logger

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
