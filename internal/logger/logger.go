// Package logger holds the process-wide logrus logger. Every entry carries
// the service name so lines from several deployments can share a sink.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wikid82/ballot/backend/internal/version"
)

// FileName is the log file written under the configured log directory.
const FileName = "ballot.log"

var base = logrus.New()

// Init sets the output and format: text at debug level when debug is set,
// JSON at info level otherwise.
func Init(debug bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	base.SetOutput(out)
	if debug {
		base.SetLevel(logrus.DebugLevel)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
		return
	}
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.JSONFormatter{})
}

// Rotating returns the file sink for dir: 10MB files, 3 compressed
// backups, kept for 28 days.
func Rotating(dir string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

func Log() *logrus.Entry {
	return base.WithField("service", version.Name)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log().WithFields(fields)
}

// ForRequest is the entry attached to each HTTP request.
func ForRequest(requestID string) *logrus.Entry {
	return Log().WithField("request_id", requestID)
}

// Writer adapts the logger for libraries that only take an io.Writer, such
// as the cron scheduler. Each line becomes one info entry.
func Writer() *io.PipeWriter {
	return Log().WriterLevel(logrus.InfoLevel)
}
