package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log records go.
type Options struct {
	Development bool
	// SentryDSN enables forwarding of error records to Sentry.
	SentryDSN string
	// File, when set, receives JSON records with size-based rotation.
	File string
}

// Init builds the process logger and installs it as the slog default.
// Development: text on stdout at debug level. Production: JSON at info level.
// The returned function flushes Sentry and closes the log file.
func Init(opts Options) (*slog.Logger, func()) {
	return initWithWriter(os.Stdout, opts)
}

func initWithWriter(out io.Writer, opts Options) (*slog.Logger, func()) {
	var (
		handlers []slog.Handler
		closers  []func()
	)

	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelInfo}))
		closers = append(closers, func() { _ = rotator.Close() })
	}

	// Sentry only receives errors.
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
			closers = append(closers, func() { sentry.Flush(2 * time.Second) })
		} else {
			slog.New(handlers[0]).Warn("sentry init failed", "error", err)
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log, func() {
		for _, c := range closers {
			c()
		}
	}
}
