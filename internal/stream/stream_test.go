package stream

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStreamCSV(t *testing.T, rows string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stream-*.csv")
	require.NoError(t, err)
	_, err = f.WriteString("orderID,Customer_ID,Product_ID,quantity,date\n" + rows)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestProducerDedupesAndSkipsBadQuantity(t *testing.T) {
	path := writeStreamCSV(t, ""+
		"O1,C1,P1,2,2017-01-01\n"+
		"O1,C1,P1,9,2017-01-01\n"+ // duplicate (orderID, Product_ID), must be dropped
		"O2,C2,P2,notanumber,2017-01-02\n"+ // unparseable quantity, must be dropped
		"O3,C3,P3,0,2017-01-03\n"+ // non-positive quantity, must be dropped
		"O4,C4,P4,5,2017-01-04\n")

	out := make(chan Transaction, 16)
	p := NewProducer(path, out, time.Microsecond, zerolog.Nop())

	err := p.Run(context.Background())
	require.NoError(t, err)

	var got []Transaction
	for txn := range out {
		got = append(got, txn)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "O1", got[0].OrderID)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, "O4", got[1].OrderID)
	assert.Equal(t, 2, p.rowsSkipped)
}

func TestProducerClosesChannelOnCompletion(t *testing.T) {
	path := writeStreamCSV(t, "O1,C1,P1,1,2017-01-01\n")
	out := make(chan Transaction, 4)
	p := NewProducer(path, out, time.Microsecond, zerolog.Nop())

	require.NoError(t, p.Run(context.Background()))

	_, ok := <-out
	assert.False(t, ok, "channel must be closed once the producer finishes")
}

func TestProducerHonorsCancellation(t *testing.T) {
	path := writeStreamCSV(t, "O1,C1,P1,1,2017-01-01\n")
	out := make(chan Transaction) // unbuffered, so the send blocks until cancellation wins
	p := NewProducer(path, out, time.Microsecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	assert.Error(t, err)
}
