package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func init() {
	logrus.SetLevel(logrus.TraceLevel)

	// Testing flags aren't parsed yet during init, so look at the raw args
	for _, arg := range os.Args {
		if arg == "-test.v" || arg == "-test.v=true" {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// CaptureLogs records every entry written to the standard logger until the
// test completes.
func CaptureLogs(t *testing.T) *test.Hook {
	hook := test.NewGlobal()
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})
	return hook
}

// HasLogEntry reports whether hook captured an entry at level with message.
func HasLogEntry(hook *test.Hook, level logrus.Level, message string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}
