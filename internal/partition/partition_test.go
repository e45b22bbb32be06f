package partition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

func TestStoreLoadRoundTrips(t *testing.T) {
	partitions := [][]master.Product{
		{{ProductID: "P1"}, {ProductID: "P2"}},
		{{ProductID: "P3"}},
	}

	store, err := NewStore(partitions, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Count())

	rows, err := store.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []master.Product{{ProductID: "P1"}, {ProductID: "P2"}}, rows)

	rows, err = store.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []master.Product{{ProductID: "P3"}}, rows)
}

func TestStoreLoadOutOfRange(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)
	_, err = store.Load(context.Background(), 0)
	assert.Error(t, err)
}
