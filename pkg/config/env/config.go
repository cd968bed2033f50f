// Package env sources config values from environment variables. Values are
// read once, when the config is created.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/code-vault/pkg/config"
	"github.com/code-payments/code-vault/pkg/config/wrapper"
)

type conf struct {
	val string
}

// NewConfig returns a raw config holding the value of the key environment
// variable, or no value when it's unset or empty.
func NewConfig(key string) config.Config {
	return &conf{
		val: os.Getenv(strings.ToUpper(key)),
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	if len(c.val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(c.val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewStringConfig creates a env-based string config
func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

// NewChoiceConfig creates a env-based string config restricted to choices
func NewChoiceConfig(key string, defaultValue string, choices ...string) config.String {
	return wrapper.NewChoiceConfig(NewConfig(key), defaultValue, choices...)
}

// NewDurationConfig creates a env-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
