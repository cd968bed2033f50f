package app

import (
	"os"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	signals []os.Signal
}

// WithShutdownSignals replaces the set of signals that cancel the running
// app.
func WithShutdownSignals(signals ...os.Signal) Option {
	return func(o *opts) {
		o.signals = signals
	}
}
