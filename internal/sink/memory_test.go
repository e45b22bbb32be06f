package sink

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

func TestMemorySinkGetOrCreateIsIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	k1, err := s.GetOrCreateSupplier(ctx, 7, "Acme")
	require.NoError(t, err)
	k2, err := s.GetOrCreateSupplier(ctx, 7, "Acme")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestMemorySinkDistinctKeysPerDimension(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	supplierKey, err := s.GetOrCreateSupplier(ctx, 1, "S1")
	require.NoError(t, err)
	storeKey, err := s.GetOrCreateStore(ctx, 1, "T1")
	require.NoError(t, err)
	assert.NotEqual(t, supplierKey, storeKey)
}

func TestMemorySinkCommitMovesFactsAndResetsPending(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.InsertFact(ctx, Fact{OrderID: "O1", Quantity: 2, Revenue: decimal.NewFromInt(20)}))
	require.NoError(t, s.InsertFact(ctx, Fact{OrderID: "O2", Quantity: 1, Revenue: decimal.NewFromInt(10)}))
	require.Len(t, s.Facts, 2)

	require.NoError(t, s.Commit(ctx))
	assert.Empty(t, s.Facts)
	assert.Len(t, s.Committed(), 2)
}

func TestMemorySinkWarmDimensionsReflectsState(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	_, err := s.GetOrCreateCustomer(ctx, master.Customer{CustomerID: "C1"})
	require.NoError(t, err)

	snap, err := s.WarmDimensions(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Customers, "C1")
}
