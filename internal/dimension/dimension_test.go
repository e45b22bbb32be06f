package dimension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCachesOnMiss(t *testing.T) {
	c := NewCache[string]()
	calls := 0
	insert := func() (int64, error) {
		calls++
		return 42, nil
	}

	key, err := c.GetOrCreate(context.Background(), "P1", insert)
	require.NoError(t, err)
	assert.EqualValues(t, 42, key)
	assert.Equal(t, 1, calls)

	key, err = c.GetOrCreate(context.Background(), "P1", insert)
	require.NoError(t, err)
	assert.EqualValues(t, 42, key)
	assert.Equal(t, 1, calls, "second lookup must hit the cache, not call insert again")
}

func TestSeedPrePopulatesCache(t *testing.T) {
	c := NewCache[string]()
	c.Seed(map[string]int64{"C1": 7})

	key, err := c.GetOrCreate(context.Background(), "C1", func() (int64, error) {
		t.Fatal("insert should not be called for a seeded key")
		return 0, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, key)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCreatePropagatesInsertError(t *testing.T) {
	c := NewCache[string]()
	_, err := c.GetOrCreate(context.Background(), "X", func() (int64, error) {
		return 0, assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}
