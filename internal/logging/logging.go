// Package logging holds the process-wide logger shared by the runtime,
// the field arrays, and the CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.Mutex
	log *logrus.Logger
	// file is the log file opened by the last Init, closed when the
	// logger is replaced.
	file *os.File
)

// Init configures the logger, replacing any previous one and closing its
// log file. An unparsable level falls back to info. With console disabled
// and no file the logger discards all output.
func Init(level, logFile string, console bool) error {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}

	var f *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}
		f, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	if len(writers) > 0 {
		l.SetOutput(io.MultiWriter(writers...))
	} else {
		l.SetOutput(io.Discard)
	}

	mu.Lock()
	prev := file
	log, file = l, f
	mu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// SetOutput redirects the current logger, mostly for tests.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// Get returns the logger instance, creating a warn-level default on first use.
func Get() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// WithFields is shorthand for Get().WithFields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}
