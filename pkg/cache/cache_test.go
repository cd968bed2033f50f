package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := New[string](10)

	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 2))
	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 10, c.GetBudget())

	value, ok := c.Retrieve("A")
	require.True(t, ok)
	assert.Equal(t, "valueA", value)

	_, ok = c.Retrieve("missing")
	assert.False(t, ok)

	assert.Equal(t, ErrKeyExists, c.Insert("A", "other", 1))
	value, _ = c.Retrieve("A")
	assert.Equal(t, "valueA", value)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](3)
	c.SetVerbose(true)

	require.NoError(t, c.Insert("A", 1, 1))
	require.NoError(t, c.Insert("B", 2, 1))
	require.NoError(t, c.Insert("C", 3, 1))

	// Touch A so B becomes the eviction candidate
	_, ok := c.Retrieve("A")
	require.True(t, ok)

	require.NoError(t, c.Insert("D", 4, 1))
	assert.Equal(t, 3, c.GetWeight())

	_, ok = c.Retrieve("B")
	assert.False(t, ok)
	for _, key := range []string{"A", "C", "D"} {
		_, ok := c.Retrieve(key)
		assert.True(t, ok, key)
	}

	// A heavy item evicts as many as needed
	require.NoError(t, c.Insert("E", 5, 3))
	assert.Equal(t, 3, c.GetWeight())
	for _, key := range []string{"A", "C", "D"} {
		_, ok := c.Retrieve(key)
		assert.False(t, ok, key)
	}

	// An item over budget can't stay either
	require.NoError(t, c.Insert("F", 6, 4))
	assert.Equal(t, 0, c.GetWeight())
	_, ok = c.Retrieve("F")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New[string](5)
	require.NoError(t, c.Insert("A", "valueA", 2))

	c.Clear()
	assert.Equal(t, 0, c.GetWeight())
	_, ok := c.Retrieve("A")
	assert.False(t, ok)

	require.NoError(t, c.Insert("A", "valueA", 2))
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d-%d", i, j)
				_ = c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.GetWeight())
}
