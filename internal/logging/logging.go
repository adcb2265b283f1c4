package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with file rotation. It is injected into every
// component so tests can construct a quiet instance.
type Logger struct {
	log *logrus.Logger
}

// New creates a Logger writing to stdout and, when dir is non-empty, to a
// rotated log file under dir.
func New(dir, level string) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log folder failed: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "alertdash.log"),
			MaxSize:    50, // megabytes
			MaxBackups: 7,
			MaxAge:     28, // days
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}

	return &Logger{log: l}, nil
}

// NewNop returns a Logger that discards everything. Used in tests.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{log: l}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}
