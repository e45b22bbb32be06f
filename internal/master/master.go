// Package master loads and normalizes the two static master datasets
// (products, customers) and partitions the product table for the joiner.
package master

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/csvsource"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/money"
)

// Product is one deduplicated, normalized master product row.
type Product struct {
	ProductID       string
	ProductCategory string
	Price           decimal.Decimal
	SupplierID      int
	SupplierName    string
	StoreID         int
	StoreName       string
}

// Customer is one deduplicated, normalized master customer row.
type Customer struct {
	CustomerID    string
	Gender        string
	Age           string
	Occupation    string
	CityCategory  string
	StayYears     string
	MaritalStatus int
}

const unknown = "Unknown"

// LoadProducts reads, normalizes, and dedupes product_master_data.csv,
// keeping the first row seen for any repeated Product_ID.
func LoadProducts(path string) ([]Product, error) {
	rows, err := csvsource.LoadProducts(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	products := make([]Product, 0, len(rows))
	for _, r := range rows {
		if r.ProductID == "" {
			continue
		}
		if _, dup := seen[r.ProductID]; dup {
			continue
		}
		seen[r.ProductID] = struct{}{}
		products = append(products, Product{
			ProductID:       r.ProductID,
			ProductCategory: orUnknown(r.ProductCategory),
			Price:           money.ParsePrice(r.Price),
			SupplierID:      coerceInt(r.SupplierID),
			SupplierName:    orUnknown(r.SupplierName),
			StoreID:         coerceInt(r.StoreID),
			StoreName:       orUnknown(r.StoreName),
		})
	}
	return products, nil
}

// LoadCustomers reads, normalizes, and dedupes customer_master_data.csv,
// keeping the first row seen for any repeated Customer_ID.
func LoadCustomers(path string) ([]Customer, error) {
	rows, err := csvsource.LoadCustomers(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	customers := make([]Customer, 0, len(rows))
	for _, r := range rows {
		if r.CustomerID == "" {
			continue
		}
		if _, dup := seen[r.CustomerID]; dup {
			continue
		}
		seen[r.CustomerID] = struct{}{}
		customers = append(customers, Customer{
			CustomerID:    r.CustomerID,
			Gender:        orUnknown(r.Gender),
			Age:           orUnknown(r.Age),
			Occupation:    orUnknown(r.Occupation),
			CityCategory:  orUnknown(r.CityCategory),
			StayYears:     orUnknown(r.StayYears),
			MaritalStatus: coerceInt(r.MaritalStatus),
		})
	}
	return customers, nil
}

// Partition builds the partitioned product table and the secondary
// Product_ID -> partition-index lookup, both described in spec.md §4.1.
func Partition(products []Product, partitionSize int) (partitions [][]Product, productToPartition map[string]int) {
	if partitionSize <= 0 {
		partitionSize = 500
	}

	n := len(products)
	numPartitions := (n + partitionSize - 1) / partitionSize
	partitions = make([][]Product, 0, numPartitions)
	productToPartition = make(map[string]int, n)

	for start := 0; start < n; start += partitionSize {
		end := start + partitionSize
		if end > n {
			end = n
		}
		idx := len(partitions)
		partitions = append(partitions, products[start:end])
		for _, p := range products[start:end] {
			productToPartition[p.ProductID] = idx
		}
	}
	return partitions, productToPartition
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

func coerceInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
