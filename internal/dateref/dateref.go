// Package dateref derives canonical date-dimension rows from free-form
// date strings found in the stream.
package dateref

import (
	"time"

	"github.com/araddon/dateparse"
)

// fallback is the documented substitute for a date string that fails to
// parse, keeping the pipeline flowing on malformed rows.
var fallback = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

// Date is one derived DimDate row. FullDate is the dimension's natural key.
type Date struct {
	FullDate  string
	Day       int
	Month     int
	MonthName string
	Quarter   int
	Year      int
	Week      int
	Weekday   string
	Season    string
}

// Derive parses raw into a canonical Date, substituting the documented
// fallback date on parse failure.
func Derive(raw string) Date {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		t = fallback
	}
	return fromTime(t)
}

func fromTime(t time.Time) Date {
	_, week := t.ISOWeek()
	return Date{
		FullDate:  t.Format("2006-01-02"),
		Day:       t.Day(),
		Month:     int(t.Month()),
		MonthName: t.Month().String(),
		Quarter:   quarterOf(int(t.Month())),
		Year:      t.Year(),
		Week:      week,
		Weekday:   t.Weekday().String(),
		Season:    seasonOf(int(t.Month())),
	}
}

func quarterOf(month int) int {
	return ((month - 1) / 3) + 1
}

func seasonOf(month int) string {
	switch month {
	case 12, 1, 2:
		return "Winter"
	case 3, 4, 5:
		return "Spring"
	case 6, 7, 8:
		return "Summer"
	default:
		return "Fall"
	}
}
