// Package logging builds the process logger: slog text output on stderr,
// optionally mirrored into a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level slog.Level
	// FilePath enables the rotating log file when non-empty.
	FilePath string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Logger is a slog.Logger whose level can be changed while running.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *lumberjack.Logger
}

// New creates the logger. Close it to flush the log file.
func New(opts Options) *Logger {
	level := new(slog.LevelVar)
	level.Set(opts.Level)

	out := opts.Stderr
	if out == nil {
		out = os.Stderr
	}

	var file *lumberjack.Logger
	if opts.FilePath != "" {
		file = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28,
		}
		out = io.MultiWriter(out, file)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler), level: level, file: file}
}

// SetLevel changes the minimum level of every record logged from now on.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level reports the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
