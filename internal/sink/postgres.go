package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/dateref"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/master"
)

// pqSink is the lib/pq-backed Sink. It keeps one open transaction per
// commit window, opened lazily on the first write after the previous
// commit, mirroring the teacher's BatchInsertCustomerOrderLines
// BeginTx/defer Rollback/Commit shape.
type pqSink struct {
	db *sql.DB
	tx *sql.Tx
}

// Open connects to dsn and verifies the connection with a ping.
func Open(dsn string) (Sink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sink connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sink: %w", err)
	}
	return &pqSink{db: db}, nil
}

func (s *pqSink) ensureTx(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning commit window: %w", err)
	}
	s.tx = tx
	return tx, nil
}

func (s *pqSink) GetOrCreateSupplier(ctx context.Context, id int, name string) (int64, error) {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return 0, err
	}
	var key int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dim_supplier (supplier_id, supplier_name)
		VALUES ($1, $2)
		ON CONFLICT (supplier_id) DO UPDATE SET supplier_id = EXCLUDED.supplier_id
		RETURNING supplier_key
	`, id, name).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("inserting dim_supplier: %w", err)
	}
	return key, nil
}

func (s *pqSink) GetOrCreateStore(ctx context.Context, id int, name string) (int64, error) {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return 0, err
	}
	var key int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dim_store (store_id, store_name)
		VALUES ($1, $2)
		ON CONFLICT (store_id) DO UPDATE SET store_id = EXCLUDED.store_id
		RETURNING store_key
	`, id, name).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("inserting dim_store: %w", err)
	}
	return key, nil
}

func (s *pqSink) GetOrCreateCustomer(ctx context.Context, c master.Customer) (int64, error) {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return 0, err
	}
	var key int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dim_customer (
			customer_id, gender, age, occupation, city_category,
			stay_in_current_city_years, marital_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING customer_key
	`, c.CustomerID, c.Gender, c.Age, c.Occupation, c.CityCategory, c.StayYears, c.MaritalStatus).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("inserting dim_customer: %w", err)
	}
	return key, nil
}

func (s *pqSink) GetOrCreateProduct(ctx context.Context, p ResolvedProduct) (int64, error) {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return 0, err
	}
	var key int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dim_product (
			product_id, product_category, price, supplier_key, store_key
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET product_id = EXCLUDED.product_id
		RETURNING product_key
	`, p.ProductID, p.Category, p.Price, p.SupplierKey, p.StoreKey).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("inserting dim_product: %w", err)
	}
	return key, nil
}

func (s *pqSink) GetOrCreateDate(ctx context.Context, d dateref.Date) (int64, error) {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return 0, err
	}
	var key int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dim_date (
			full_date, day, month, month_name, quarter, year, week, weekday, season
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (full_date) DO UPDATE SET full_date = EXCLUDED.full_date
		RETURNING date_key
	`, d.FullDate, d.Day, d.Month, d.MonthName, d.Quarter, d.Year, d.Week, d.Weekday, d.Season).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("inserting dim_date: %w", err)
	}
	return key, nil
}

func (s *pqSink) InsertFact(ctx context.Context, f Fact) error {
	tx, err := s.ensureTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fact_sales (
			customer_key, product_key, supplier_key, store_key, date_key,
			order_id, quantity, revenue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.CustomerKey, f.ProductKey, f.SupplierKey, f.StoreKey, f.DateKey, f.OrderID, f.Quantity, f.Revenue)
	if err != nil {
		return fmt.Errorf("inserting fact_sales: %w", err)
	}
	return nil
}

// Commit finalizes the current commit window. A fatal sink error here
// means uncommitted facts in this batch are lost; previously committed
// batches are unaffected (spec.md §7).
func (s *pqSink) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (s *pqSink) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

func (s *pqSink) WarmDimensions(ctx context.Context) (DimensionSnapshot, error) {
	snap := DimensionSnapshot{
		Suppliers: make(map[int]int64),
		Stores:    make(map[int]int64),
		Customers: make(map[string]int64),
		Products:  make(map[string]int64),
		Dates:     make(map[string]int64),
	}

	if err := warmInto(ctx, s.db, "SELECT supplier_id, supplier_key FROM dim_supplier", func(rows *sql.Rows) error {
		var id int
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		snap.Suppliers[id] = key
		return nil
	}); err != nil {
		return snap, err
	}

	if err := warmInto(ctx, s.db, "SELECT store_id, store_key FROM dim_store", func(rows *sql.Rows) error {
		var id int
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		snap.Stores[id] = key
		return nil
	}); err != nil {
		return snap, err
	}

	if err := warmInto(ctx, s.db, "SELECT customer_id, customer_key FROM dim_customer", func(rows *sql.Rows) error {
		var id string
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		snap.Customers[id] = key
		return nil
	}); err != nil {
		return snap, err
	}

	if err := warmInto(ctx, s.db, "SELECT product_id, product_key FROM dim_product", func(rows *sql.Rows) error {
		var id string
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		snap.Products[id] = key
		return nil
	}); err != nil {
		return snap, err
	}

	if err := warmInto(ctx, s.db, "SELECT full_date, date_key FROM dim_date", func(rows *sql.Rows) error {
		var id string
		var key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		snap.Dates[id] = key
		return nil
	}); err != nil {
		return snap, err
	}

	return snap, nil
}

func warmInto(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("warming dimension (%s): %w", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scanning warm row (%s): %w", query, err)
		}
	}
	return rows.Err()
}
