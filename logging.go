package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const logTimestampLayout = "2006-01-02 15:04:05"

// NewLogger builds the process logger. It is created once in main and handed
// to every component.
func NewLogger(out io.Writer, debug bool, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: logTimestampLayout,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: logTimestampLayout,
		})
	default:
		return nil, errors.Errorf("unknown log format %q (want text or json)", format)
	}

	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger, nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackTrace returns the trace recorded closest to the origin of err, or ""
// when no error in the chain carries one.
func stackTrace(err error) string {
	var deepest stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			deepest = st
		}
	}
	if deepest == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%+v", deepest.StackTrace()))
}

// logFailure logs err followed by its diagnostic trace
func logFailure(entry *logrus.Entry, err error, format string, args ...interface{}) {
	entry.WithError(err).Errorf(format, args...)
	if trace := stackTrace(err); trace != "" {
		entry.Error(trace)
	}
}
