package wrapper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/config"
)

var (
	// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
	ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

	// ErrInvalidChoice indicates the source value isn't one of the allowed choices
	ErrInvalidChoice = errors.New("config: value is not an allowed choice")
)

// typedConfig converts raw source values to T. It remembers the last good
// value so callers that ignore errors keep a sensible setting.
type typedConfig[T any] struct {
	source       config.Config
	defaultValue T
	convert      func(interface{}) (T, error)

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](source config.Config, defaultValue T, convert func(interface{}) (T, error)) *typedConfig[T] {
	return &typedConfig[T]{
		source:       source,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.source.Get(ctx)

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if err == config.ErrNoValue {
		c.lastValue = c.defaultValue
		return c.defaultValue, nil
	} else if err != nil {
		return c.lastValue, err
	}

	value, err := c.convert(raw)
	if err != nil {
		return c.lastValue, err
	}

	c.lastValue = value
	return value, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.source.Shutdown()
}

// NewStringConfig returns a string config backed by source. Byte slice and
// string source values are supported.
func NewStringConfig(source config.Config, defaultValue string) config.String {
	return newTypedConfig(source, defaultValue, toString)
}

// NewChoiceConfig returns a string config that only accepts one of choices.
// Matching is case insensitive and surrounding whitespace is ignored, the
// returned value is the choice as declared.
func NewChoiceConfig(source config.Config, defaultValue string, choices ...string) config.String {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (string, error) {
		value, err := toString(raw)
		if err != nil {
			return "", err
		}

		value = strings.TrimSpace(value)
		for _, choice := range choices {
			if strings.EqualFold(value, choice) {
				return choice, nil
			}
		}
		return "", errors.Wrapf(ErrInvalidChoice, "%q not in %v", value, choices)
	})
}

// NewDurationConfig returns a duration config backed by source. Byte slice
// source values are parsed with time.ParseDuration.
func NewDurationConfig(source config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch raw := raw.(type) {
		case []byte:
			return time.ParseDuration(strings.TrimSpace(string(raw)))
		case time.Duration:
			return raw, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

func toString(raw interface{}) (string, error) {
	switch raw := raw.(type) {
	case []byte:
		return string(raw), nil
	case string:
		return raw, nil
	default:
		return "", ErrUnsuportedConversion
	}
}
