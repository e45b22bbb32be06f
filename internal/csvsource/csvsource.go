// Package csvsource decodes the three UTF-8 CSV input files into row structs.
package csvsource

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// ProductRow is one row of product_master_data.csv. The price column is
// decoded separately (see DetectPriceColumn) because its header spelling
// varies; Price carries whichever of the two accepted spellings was found.
type ProductRow struct {
	ProductID       string `csv:"Product_ID"`
	ProductCategory string `csv:"Product_Category"`
	Price           string `csv:"-"`
	SupplierID      string `csv:"supplierID"`
	SupplierName    string `csv:"supplierName"`
	StoreID         string `csv:"storeID"`
	StoreName       string `csv:"storeName"`
}

// CustomerRow is one row of customer_master_data.csv.
type CustomerRow struct {
	CustomerID    string `csv:"Customer_ID"`
	Gender        string `csv:"Gender"`
	Age           string `csv:"Age"`
	Occupation    string `csv:"Occupation"`
	CityCategory  string `csv:"City_Category"`
	StayYears     string `csv:"Stay_In_Current_City_Years"`
	MaritalStatus string `csv:"Marital_Status"`
}

// TransactionRow is one row of transactional_data.csv.
type TransactionRow struct {
	OrderID    string `csv:"orderID"`
	CustomerID string `csv:"Customer_ID"`
	ProductID  string `csv:"Product_ID"`
	Quantity   string `csv:"quantity"`
	Date       string `csv:"date"`
}

// acceptedPriceColumns enumerates the price-column spellings this loader
// recognizes, resolved once at load time rather than via pattern matching.
var acceptedPriceColumns = []string{"price", "price$"}

// DetectPriceColumn returns the header's actual price column name, matched
// case-insensitively against the accepted spellings, and an error if none
// of them is present.
func DetectPriceColumn(header []string) (string, error) {
	for _, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, accepted := range acceptedPriceColumns {
			if lower == accepted {
				return h, nil
			}
		}
	}
	return "", fmt.Errorf("product master data: no price column found (expected one of %v)", acceptedPriceColumns)
}

// LoadProducts decodes product_master_data.csv, pairing each row with its
// raw price string pulled from whichever price column header is present.
func LoadProducts(path string) ([]ProductRow, error) {
	header, rawRows, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	priceCol, err := DetectPriceColumn(header)
	if err != nil {
		return nil, err
	}
	priceIdx := indexOf(header, priceCol)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening product master data: %w", err)
	}
	defer f.Close()

	var rows []ProductRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("decoding product master data: %w", err)
	}

	for i := range rows {
		if i < len(rawRows) && priceIdx >= 0 && priceIdx < len(rawRows[i]) {
			rows[i].Price = rawRows[i][priceIdx]
		}
	}
	return rows, nil
}

// LoadCustomers decodes customer_master_data.csv.
func LoadCustomers(path string) ([]CustomerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening customer master data: %w", err)
	}
	defer f.Close()

	var rows []CustomerRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("decoding customer master data: %w", err)
	}
	return rows, nil
}

// readRaw returns the header and raw string rows of a CSV file, used to
// pull the dynamically-named price column alongside the struct decode.
func readRaw(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := gocsv.DefaultCSVReader(f)
	header, err = reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading rows of %s: %w", path, err)
	}
	return header, all, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// TransactionStream yields transaction rows one at a time as the stream
// CSV is read, rather than decoding the whole file up front — this is
// what lets the Stream Producer treat transactional_data.csv as a stream
// instead of a bounded in-memory table.
type TransactionStream struct {
	file *os.File
	rows chan TransactionRow
	err  error
}

// OpenTransactionStream opens the transactional CSV and starts decoding it
// in the background via gocsv's channel-based unmarshal.
func OpenTransactionStream(path string) (*TransactionStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transactional data: %w", err)
	}

	rows := make(chan TransactionRow, 256)
	ts := &TransactionStream{file: f, rows: rows}
	go func() {
		defer close(rows)
		// gocsv closes the channel it decodes into when it returns, so it
		// decodes into its own channel and rows is closed only here, after
		// ts.err has been recorded.
		decoded := make(chan TransactionRow, 256)
		errCh := make(chan error, 1)
		go func() { errCh <- gocsv.UnmarshalToChan(f, decoded) }()
		for row := range decoded {
			rows <- row
		}
		if decodeErr := <-errCh; decodeErr != nil {
			ts.err = fmt.Errorf("decoding transactional data: %w", decodeErr)
		}
	}()
	return ts, nil
}

// Next returns the next transaction row, or ok=false once the stream is
// exhausted (check Err afterward for a decode failure).
func (ts *TransactionStream) Next() (row TransactionRow, ok bool) {
	row, ok = <-ts.rows
	return row, ok
}

// Err returns any error encountered while decoding the stream. Only
// meaningful after Next has returned ok=false.
func (ts *TransactionStream) Err() error {
	return ts.err
}

// Close releases the underlying file handle.
func (ts *TransactionStream) Close() error {
	return ts.file.Close()
}
