package logging

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Configure sets the global logrus level and formatter.
func Configure(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// InitSentry enables error reporting when dsn is set and installs a hook
// that forwards error-level log entries. The returned func flushes
// pending events.
func InitSentry(dsn, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
	if err != nil {
		return nil, err
	}
	logrus.AddHook(&SentryHook{})
	logrus.Info("Sentry initialized")
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// SentryHook reports error, fatal and panic entries to Sentry.
type SentryHook struct{}

func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range entry.Data {
			if k == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}
	})

	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		hub.CaptureException(errors.Join(errors.New(entry.Message), err))
		return nil
	}
	hub.CaptureMessage(entry.Message)
	return nil
}
