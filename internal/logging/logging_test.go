package logging

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	Configure("debug")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Configure("nonsense")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestInitSentryWithoutDSN(t *testing.T) {
	flush, err := InitSentry("", "test")
	require.NoError(t, err)
	flush()
}

func TestSentryHookForwardsErrors(t *testing.T) {
	var events []*sentry.Event
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	}))
	defer sentry.Init(sentry.ClientOptions{})

	hook := &SentryHook{}
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}, hook.Levels())

	entry := logrus.WithFields(logrus.Fields{
		"campaign_id":   "a1",
		logrus.ErrorKey: errors.New("disk full"),
	})
	entry.Message = "Campaign store write failed"
	require.NoError(t, hook.Fire(entry))

	plain := logrus.WithField("path", "x.csv")
	plain.Message = "Campaign store is corrupt"
	require.NoError(t, hook.Fire(plain))

	require.Len(t, events, 2)
	assert.Equal(t, "a1", events[0].Extra["campaign_id"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "Campaign store is corrupt", events[1].Message)
}
