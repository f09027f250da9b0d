package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"order-console/internal/config"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
	UserIDKey    ContextKey = "userID"
)

// New builds the application logger. Output "file" and "both" write to a
// size-rotated file.
func New(cfg config.Log) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var writers []io.Writer
	switch strings.ToLower(cfg.Output) {
	case "file":
		writers = append(writers, fileWriter(cfg))
	case "both":
		writers = append(writers, fileWriter(cfg), os.Stdout)
	default:
		writers = append(writers, os.Stdout)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log
}

func fileWriter(cfg config.Log) io.Writer {
	_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithContext attaches request-scoped fields carried by ctx.
func WithContext(ctx context.Context, log logrus.FieldLogger) logrus.FieldLogger {
	entry := log
	if v := ctx.Value(RequestIDKey); v != nil {
		entry = entry.WithField("request_id", v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		entry = entry.WithField("user_id", v)
	}
	return entry
}
