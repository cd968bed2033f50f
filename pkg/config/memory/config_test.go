package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/config"
)

func TestHappyPath(t *testing.T) {
	c := NewConfig(nil)
	_, err := c.Get(context.Background())
	assert.Equal(t, config.ErrNoValue, err)

	expected := "value"
	c.SetValue(expected)
	val, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, val)

	c.SetValue(nil)
	_, err = c.Get(context.Background())
	assert.Equal(t, config.ErrNoValue, err)

	induced := errors.New("unavailable")
	c.SetValue(expected)
	c.SetError(induced)
	_, err = c.Get(context.Background())
	assert.Equal(t, induced, err)

	c.SetError(nil)
	val, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, val)

	c.Shutdown()
	_, err = c.Get(context.Background())
	assert.Equal(t, config.ErrShutdown, err)
}
