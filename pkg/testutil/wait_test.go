package testutil

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	require.NoError(t, WaitFor(50*time.Millisecond, 25*time.Millisecond, func() bool {
		return true
	}))

	require.Error(t, WaitFor(50*time.Millisecond, 25*time.Millisecond, func() bool {
		return false
	}))

	require.Error(t, WaitFor(50*time.Millisecond, 100*time.Millisecond, func() bool {
		return true
	}))

	var calls int
	require.NoError(t, WaitFor(time.Second, time.Millisecond, func() bool {
		calls++
		return calls == 3
	}))
	assert.Equal(t, 3, calls)
}

func TestCaptureLogs(t *testing.T) {
	hook := CaptureLogs(t)

	logrus.StandardLogger().WithField("key", "value").Warn("captured")

	assert.True(t, HasLogEntry(hook, logrus.WarnLevel, "captured"))
	assert.False(t, HasLogEntry(hook, logrus.InfoLevel, "captured"))
	assert.False(t, HasLogEntry(hook, logrus.WarnLevel, "other"))
}
