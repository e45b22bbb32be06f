// Package sink defines the transactional destination the engine writes
// dimension and fact rows to, and provides a Postgres-backed
// implementation plus an in-memory fake for tests.
package sink

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/dateref"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

// ResolvedProduct is the natural-key projection of a master product row
// the product dimension is keyed on, including the dimension keys it
// denormalizes (spec.md §3's DimProduct columns).
type ResolvedProduct struct {
	ProductID   string
	Category    string
	Price       decimal.Decimal
	SupplierKey int64
	StoreKey    int64
}

// Fact is one resolved FactSales row, ready for insertion.
type Fact struct {
	CustomerKey int64
	ProductKey  int64
	SupplierKey int64
	StoreKey    int64
	DateKey     int64
	OrderID     string
	Quantity    int
	Revenue     decimal.Decimal
}

// DimensionSnapshot carries the natural-key -> surrogate-key rows found
// already present in each dimension table at startup, used to warm the
// in-memory caches (spec.md §4.2, "warmed at startup").
type DimensionSnapshot struct {
	Suppliers map[int]int64
	Stores    map[int]int64
	Customers map[string]int64
	Products  map[string]int64
	Dates     map[string]int64
}

// Sink is the transactional row store the engine writes to: parameterized
// inserts that return a generated surrogate key, plus commit and close
// (spec.md §6's "Sink interface").
type Sink interface {
	GetOrCreateSupplier(ctx context.Context, id int, name string) (int64, error)
	GetOrCreateStore(ctx context.Context, id int, name string) (int64, error)
	GetOrCreateCustomer(ctx context.Context, c master.Customer) (int64, error)
	GetOrCreateProduct(ctx context.Context, p ResolvedProduct) (int64, error)
	GetOrCreateDate(ctx context.Context, d dateref.Date) (int64, error)
	InsertFact(ctx context.Context, f Fact) error
	Commit(ctx context.Context) error
	Close() error
	WarmDimensions(ctx context.Context) (DimensionSnapshot, error)
}
