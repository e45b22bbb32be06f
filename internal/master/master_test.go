package master

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadProductsDedupeAndNormalize(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "products.csv", ""+
		"Product_ID,Product_Category,price$,supplierID,supplierName,storeID,storeName\n"+
		"P1,Electronics,$12.50,7,Acme,3,MainStreet\n"+
		"P1,Electronics,$99.00,7,Acme,3,MainStreet\n"+
		"P2,Grocery,not-a-price,abc,,,\n")

	products, err := LoadProducts(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "P1", products[0].ProductID)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 7, products[0].SupplierID)

	assert.Equal(t, "P2", products[1].ProductID)
	assert.True(t, products[1].Price.IsZero())
	assert.Equal(t, 0, products[1].SupplierID)
	assert.Equal(t, "Unknown", products[1].SupplierName)
}

func TestLoadProductsMissingPriceColumnFails(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "products.csv", ""+
		"Product_ID,Product_Category,supplierID,supplierName,storeID,storeName\n"+
		"P1,Electronics,7,Acme,3,MainStreet\n")

	_, err := LoadProducts(path)
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	products := make([]Product, 0, 7)
	for i := 0; i < 7; i++ {
		products = append(products, Product{ProductID: string(rune('A' + i))})
	}

	partitions, index := Partition(products, 3)
	require.Len(t, partitions, 3)
	assert.Len(t, partitions[0], 3)
	assert.Len(t, partitions[1], 3)
	assert.Len(t, partitions[2], 1)

	for i, p := range products {
		want := i / 3
		assert.Equal(t, want, index[p.ProductID])
	}
}
