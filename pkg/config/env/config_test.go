package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	// Keys are upper cased
	v, err = NewConfig("env_config_test_var").Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_DURATION", "250ms")
	t.Setenv("ENV_CONFIG_TEST_CHOICE", "Subscribe")
	t.Setenv("ENV_CONFIG_TEST_STRING", "devnet")

	assert.Equal(t, 250*time.Millisecond, NewDurationConfig("ENV_CONFIG_TEST_DURATION", time.Second).Get(ctx))
	assert.Equal(t, time.Second, NewDurationConfig("ENV_CONFIG_TEST_UNSET", time.Second).Get(ctx))

	assert.Equal(t, "subscribe", NewChoiceConfig("ENV_CONFIG_TEST_CHOICE", "poll", "poll", "subscribe").Get(ctx))
	assert.Equal(t, "poll", NewChoiceConfig("ENV_CONFIG_TEST_STRING", "poll", "poll", "subscribe").Get(ctx))

	assert.Equal(t, "devnet", NewStringConfig("ENV_CONFIG_TEST_STRING", "mainnet-beta").Get(ctx))
}
