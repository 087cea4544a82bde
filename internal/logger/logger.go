package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "emailpreview.log"

var _log = logrus.New()

// Init initializes the global logger with output writer and debug level.
func Init(debug bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	_log.SetOutput(out)
	if debug {
		_log.SetLevel(logrus.DebugLevel)
		_log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		_log.SetLevel(logrus.InfoLevel)
		_log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// RotatingOutput returns a writer that tees to stdout and a rotated file in
// logDir. When logDir cannot be created only stdout is used.
func RotatingOutput(logDir string) io.Writer {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return os.Stdout
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotator)
}

// Log returns a standard logger entry to use across packages.
func Log() *logrus.Entry {
	return logrus.NewEntry(_log)
}

// WithFields returns a logger entry with provided fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}
