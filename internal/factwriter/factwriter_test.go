package factwriter

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/sink"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/stream"
)

func TestWriteResolvesAllDimensionsAndInsertsFact(t *testing.T) {
	snk := sink.NewMemory()
	w := New(snk, NewCaches(), []master.Customer{
		{CustomerID: "C1", Gender: "F", Age: "26-35", Occupation: "1", CityCategory: "A", StayYears: "2", MaritalStatus: 1},
	})

	product := master.Product{
		ProductID: "P1", ProductCategory: "A", Price: decimal.RequireFromString("10.00"),
		SupplierID: 1, SupplierName: "Sn1", StoreID: 1, StoreName: "Tn1",
	}
	txn := stream.Transaction{OrderID: "O1", CustomerID: "C1", ProductID: "P1", Quantity: 3, Date: "2017-06-15"}

	err := w.Write(context.Background(), txn, product)
	require.NoError(t, err)

	require.Len(t, snk.Facts, 1)
	f := snk.Facts[0]
	assert.Equal(t, "O1", f.OrderID)
	assert.Equal(t, 3, f.Quantity)
	assert.True(t, decimal.RequireFromString("30.00").Equal(f.Revenue))
	assert.NotZero(t, f.CustomerKey)
	assert.NotZero(t, f.ProductKey)
	assert.NotZero(t, f.SupplierKey)
	assert.NotZero(t, f.StoreKey)
	assert.NotZero(t, f.DateKey)
}

func TestWriteUnknownCustomerFallsBackToUnknownDimensionRow(t *testing.T) {
	snk := sink.NewMemory()
	w := New(snk, NewCaches(), nil) // no master customers loaded

	product := master.Product{ProductID: "P1", ProductCategory: "A", Price: decimal.NewFromInt(5), SupplierID: 1, StoreID: 1}
	txn := stream.Transaction{OrderID: "O1", CustomerID: "ghost", ProductID: "P1", Quantity: 1, Date: "2017-01-01"}

	err := w.Write(context.Background(), txn, product)
	require.NoError(t, err)

	snap, err := snk.WarmDimensions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap.Customers, "ghost")
}

func TestWriteBadDateFallsBackToDocumentedDate(t *testing.T) {
	snk := sink.NewMemory()
	w := New(snk, NewCaches(), nil)

	product := master.Product{ProductID: "P1", Price: decimal.NewFromInt(1), SupplierID: 1, StoreID: 1}
	txn := stream.Transaction{OrderID: "O1", CustomerID: "C1", ProductID: "P1", Quantity: 1, Date: "not-a-date"}

	require.NoError(t, w.Write(context.Background(), txn, product))

	snap, err := snk.WarmDimensions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap.Dates, "2017-01-01")
}

func TestWriteCachesDimensionLookupsAcrossCalls(t *testing.T) {
	snk := sink.NewMemory()
	w := New(snk, NewCaches(), nil)

	product := master.Product{ProductID: "P1", Price: decimal.NewFromInt(2), SupplierID: 9, SupplierName: "S9", StoreID: 9, StoreName: "T9"}

	require.NoError(t, w.Write(context.Background(), stream.Transaction{OrderID: "O1", CustomerID: "C1", ProductID: "P1", Quantity: 1, Date: "2017-01-01"}, product))
	require.NoError(t, w.Write(context.Background(), stream.Transaction{OrderID: "O2", CustomerID: "C1", ProductID: "P1", Quantity: 2, Date: "2017-01-01"}, product))

	require.Len(t, snk.Facts, 2)
	assert.Equal(t, snk.Facts[0].SupplierKey, snk.Facts[1].SupplierKey)
	assert.Equal(t, snk.Facts[0].ProductKey, snk.Facts[1].ProductKey)
}
