package sink

import (
	"context"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/dateref"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

// MemSink is an in-memory Sink fake. It is single-writer by contract (the
// engine never calls a Sink from more than one goroutine), so it carries
// no locking of its own.
type MemSink struct {
	nextKey int64

	suppliers map[int]int64
	stores    map[int]int64
	customers map[string]int64
	products  map[string]int64
	dates     map[string]int64

	Facts     []Fact
	committed []Fact
	closed    bool
}

// NewMemory builds an empty in-memory Sink, useful for tests and for
// running the engine with nothing behind it.
func NewMemory() *MemSink {
	return &MemSink{
		suppliers: make(map[int]int64),
		stores:    make(map[int]int64),
		customers: make(map[string]int64),
		products:  make(map[string]int64),
		dates:     make(map[string]int64),
	}
}

func (s *MemSink) allocKey() int64 {
	s.nextKey++
	return s.nextKey
}

func (s *MemSink) GetOrCreateSupplier(_ context.Context, id int, _ string) (int64, error) {
	if key, ok := s.suppliers[id]; ok {
		return key, nil
	}
	key := s.allocKey()
	s.suppliers[id] = key
	return key, nil
}

func (s *MemSink) GetOrCreateStore(_ context.Context, id int, _ string) (int64, error) {
	if key, ok := s.stores[id]; ok {
		return key, nil
	}
	key := s.allocKey()
	s.stores[id] = key
	return key, nil
}

func (s *MemSink) GetOrCreateCustomer(_ context.Context, c master.Customer) (int64, error) {
	if key, ok := s.customers[c.CustomerID]; ok {
		return key, nil
	}
	key := s.allocKey()
	s.customers[c.CustomerID] = key
	return key, nil
}

func (s *MemSink) GetOrCreateProduct(_ context.Context, p ResolvedProduct) (int64, error) {
	if key, ok := s.products[p.ProductID]; ok {
		return key, nil
	}
	key := s.allocKey()
	s.products[p.ProductID] = key
	return key, nil
}

func (s *MemSink) GetOrCreateDate(_ context.Context, d dateref.Date) (int64, error) {
	if key, ok := s.dates[d.FullDate]; ok {
		return key, nil
	}
	key := s.allocKey()
	s.dates[d.FullDate] = key
	return key, nil
}

func (s *MemSink) InsertFact(_ context.Context, f Fact) error {
	s.Facts = append(s.Facts, f)
	return nil
}

func (s *MemSink) Commit(_ context.Context) error {
	s.committed = append(s.committed, s.Facts...)
	s.Facts = nil
	return nil
}

func (s *MemSink) Close() error {
	s.closed = true
	return nil
}

func (s *MemSink) WarmDimensions(_ context.Context) (DimensionSnapshot, error) {
	return DimensionSnapshot{
		Suppliers: s.suppliers,
		Stores:    s.stores,
		Customers: s.customers,
		Products:  s.products,
		Dates:     s.dates,
	}, nil
}

// Committed returns every fact that has survived a Commit call, in commit
// order — the set callers should assert against once a run finishes.
func (s *MemSink) Committed() []Fact {
	return s.committed
}
