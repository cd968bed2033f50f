package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(100 * time.Millisecond)

	for i := uint(1); i < 10; i++ {
		assert.Equal(t, 100*time.Millisecond, s(i))
	}
}

func TestLinear(t *testing.T) {
	s := Linear(500 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, s(1))
	assert.Equal(t, 1*time.Second, s(2))
	assert.Equal(t, 1*time.Second+500*time.Millisecond, s(3))
	assert.Equal(t, 2*time.Second, s(4))

	assert.EqualValues(t, math.MaxInt64, Linear(time.Hour)(math.MaxUint32))
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(250 * time.Millisecond)

	assert.Equal(t, 250*time.Millisecond, s(1))
	assert.Equal(t, 500*time.Millisecond, s(2))
	assert.Equal(t, 1*time.Second, s(3))
	assert.Equal(t, 2*time.Second, s(4))

	assert.EqualValues(t, math.MaxInt64, s(40))
	assert.EqualValues(t, math.MaxInt64, s(64))
	assert.EqualValues(t, math.MaxInt64, s(1000))
}
