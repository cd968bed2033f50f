package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/vault"
)

const (
	defaultWatchSchedule = "@every 30s"
)

// watch prints the vault state now and again after every refresh on schedule,
// until ctx is done. Refreshes that overrun the next tick skip it.
func watch(ctx context.Context, out io.Writer, controller *vault.Controller, schedule string) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":     "cmd/vault",
		"method":   "watch",
		"schedule": schedule,
	})

	logger := &cronLogger{log: log}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := scheduler.AddFunc(schedule, func() {
		controller.Refresh(ctx)
		printState(out, controller)
	})
	if err != nil {
		return errors.Wrapf(err, "invalid watch schedule %q", schedule)
	}

	printState(out, controller)

	scheduler.Start()
	log.Debug("watching balances")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

// cronLogger routes scheduler logs through logrus.
type cronLogger struct {
	log *logrus.Entry
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).WithError(err).Warn(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
