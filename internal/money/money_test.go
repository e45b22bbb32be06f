package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.00", "10"},
		{"$12.50", "12.5"},
		{"  $3.25 ", "3.25"},
		{"not-a-number", "0"},
		{"", "0"},
		{"-5.00", "0"},
	}

	for _, c := range cases {
		got := ParsePrice(c.in)
		want, _ := decimal.NewFromString(c.want)
		assert.True(t, got.Equal(want), "ParsePrice(%q) = %s, want %s", c.in, got, want)
	}
}

func TestRevenue(t *testing.T) {
	price := ParsePrice("$12.505")
	rev := Revenue(4, price)
	want, _ := decimal.NewFromString("50.02")
	assert.True(t, rev.Equal(want), "Revenue = %s, want %s", rev, want)
}
