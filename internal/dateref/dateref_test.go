package dateref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKnownDate(t *testing.T) {
	d := Derive("2017-06-15")
	assert.Equal(t, "2017-06-15", d.FullDate)
	assert.Equal(t, 2, d.Quarter)
	assert.Equal(t, "Summer", d.Season)
	assert.Equal(t, "Thursday", d.Weekday)
	assert.Equal(t, 2017, d.Year)
}

func TestDeriveBadDateFallsBack(t *testing.T) {
	d := Derive("not-a-date")
	assert.Equal(t, "2017-01-01", d.FullDate)
	assert.Equal(t, "Winter", d.Season)
}

func TestSeasonBoundaries(t *testing.T) {
	assert.Equal(t, "Winter", seasonOf(12))
	assert.Equal(t, "Winter", seasonOf(1))
	assert.Equal(t, "Winter", seasonOf(2))
	assert.Equal(t, "Spring", seasonOf(3))
	assert.Equal(t, "Summer", seasonOf(6))
	assert.Equal(t, "Fall", seasonOf(9))
}

func TestQuarterOf(t *testing.T) {
	assert.Equal(t, 1, quarterOf(1))
	assert.Equal(t, 1, quarterOf(3))
	assert.Equal(t, 2, quarterOf(4))
	assert.Equal(t, 4, quarterOf(12))
}
