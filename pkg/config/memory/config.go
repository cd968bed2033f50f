// Package memory provides a config source held in memory, for tests and
// programmatic overrides.
package memory

import (
	"context"
	"sync"

	"github.com/code-payments/code-vault/pkg/config"
)

// Config is an in memory config.Config
type Config struct {
	stateMu  sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

// NewConfig returns a new in memory config. Use an initial nil value to indicate
// no value is set
func NewConfig(value interface{}) *Config {
	return &Config{
		value: value,
	}
}

// Get implements Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements Config.Shutdown
func (c *Config) Shutdown() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	c.shutdown = true
}

// SetValue sets the value that should be returned on subsequent Get calls. A
// nil value behaves as if no value is set.
func (c *Config) SetValue(value interface{}) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	c.value = value
}

// SetError makes subsequent Get calls fail with err until it's cleared with a
// nil error.
func (c *Config) SetError(err error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	c.err = err
}
