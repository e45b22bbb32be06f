// Package factwriter resolves a matched (transaction, product) pair into
// a fact row: computing revenue, resolving every dimension surrogate key
// (creating dimension rows lazily on first reference), and writing the
// fact through the sink (spec.md §4.6).
package factwriter

import (
	"context"
	"fmt"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/dateref"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/dimension"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/money"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/sink"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/stream"
)

const unknown = "Unknown"

// Caches bundles the five dimension caches the writer resolves against.
// It is owned by the consumer (joiner) goroutine and needs no locking,
// per spec.md §4.2/§9.
type Caches struct {
	Suppliers *dimension.Cache[int]
	Stores    *dimension.Cache[int]
	Customers *dimension.Cache[string]
	Products  *dimension.Cache[string]
	Dates     *dimension.Cache[string]
}

// NewCaches builds an empty set of dimension caches.
func NewCaches() *Caches {
	return &Caches{
		Suppliers: dimension.NewCache[int](),
		Stores:    dimension.NewCache[int](),
		Customers: dimension.NewCache[string](),
		Products:  dimension.NewCache[string](),
		Dates:     dimension.NewCache[string](),
	}
}

// Warm seeds every cache from a snapshot read back from the sink at
// startup (spec.md §4.2, "warmed at startup by scanning each dimension
// table for existing rows").
func (c *Caches) Warm(snap sink.DimensionSnapshot) {
	c.Suppliers.Seed(snap.Suppliers)
	c.Stores.Seed(snap.Stores)
	c.Customers.Seed(snap.Customers)
	c.Products.Seed(snap.Products)
	c.Dates.Seed(snap.Dates)
}

// Writer performs the dimension resolution and fact insert of spec.md
// §4.6. It is stateless aside from the caches it holds references to;
// facts_pending is owned by the caller (the joiner), not by the writer.
type Writer struct {
	sink         sink.Sink
	caches       *Caches
	customerByID map[string]master.Customer
}

// New builds a Writer. customers is the deduped master customer table,
// used to resolve a transaction's customer attributes; a transaction
// referencing an unknown customer falls back to "Unknown" attributes
// rather than failing the row (spec.md §4.6, §9's resolved open question).
func New(snk sink.Sink, caches *Caches, customers []master.Customer) *Writer {
	byID := make(map[string]master.Customer, len(customers))
	for _, c := range customers {
		byID[c.CustomerID] = c
	}
	return &Writer{sink: snk, caches: caches, customerByID: byID}
}

// Write resolves every dimension key for (txn, product) and inserts the
// resulting fact through the sink, in the order spec.md §4.6 step 2 lists
// them (supplier, store, customer, product, date) so that a product's
// dependent supplier/store keys already exist when the product dimension
// row is created.
func (w *Writer) Write(ctx context.Context, txn stream.Transaction, product master.Product) error {
	revenue := money.Revenue(txn.Quantity, product.Price)

	supplierKey, err := w.caches.Suppliers.GetOrCreate(ctx, product.SupplierID, func() (int64, error) {
		return w.sink.GetOrCreateSupplier(ctx, product.SupplierID, product.SupplierName)
	})
	if err != nil {
		return fmt.Errorf("resolving supplier key: %w", err)
	}

	storeKey, err := w.caches.Stores.GetOrCreate(ctx, product.StoreID, func() (int64, error) {
		return w.sink.GetOrCreateStore(ctx, product.StoreID, product.StoreName)
	})
	if err != nil {
		return fmt.Errorf("resolving store key: %w", err)
	}

	customer, ok := w.customerByID[txn.CustomerID]
	if !ok {
		customer = master.Customer{
			CustomerID:    txn.CustomerID,
			Gender:        unknown,
			Age:           unknown,
			Occupation:    unknown,
			CityCategory:  unknown,
			StayYears:     unknown,
			MaritalStatus: 0,
		}
	}
	customerKey, err := w.caches.Customers.GetOrCreate(ctx, txn.CustomerID, func() (int64, error) {
		return w.sink.GetOrCreateCustomer(ctx, customer)
	})
	if err != nil {
		return fmt.Errorf("resolving customer key: %w", err)
	}

	productKey, err := w.caches.Products.GetOrCreate(ctx, product.ProductID, func() (int64, error) {
		return w.sink.GetOrCreateProduct(ctx, sink.ResolvedProduct{
			ProductID:   product.ProductID,
			Category:    product.ProductCategory,
			Price:       product.Price,
			SupplierKey: supplierKey,
			StoreKey:    storeKey,
		})
	})
	if err != nil {
		return fmt.Errorf("resolving product key: %w", err)
	}

	date := dateref.Derive(txn.Date)
	dateKey, err := w.caches.Dates.GetOrCreate(ctx, date.FullDate, func() (int64, error) {
		return w.sink.GetOrCreateDate(ctx, date)
	})
	if err != nil {
		return fmt.Errorf("resolving date key: %w", err)
	}

	err = w.sink.InsertFact(ctx, sink.Fact{
		CustomerKey: customerKey,
		ProductKey:  productKey,
		SupplierKey: supplierKey,
		StoreKey:    storeKey,
		DateKey:     dateKey,
		OrderID:     txn.OrderID,
		Quantity:    txn.Quantity,
		Revenue:     revenue,
	})
	if err != nil {
		return fmt.Errorf("inserting fact: %w", err)
	}
	return nil
}
