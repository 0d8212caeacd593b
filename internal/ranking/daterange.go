package ranking

import (
	"fmt"
	"time"
)

// MonthRange returns the first and last calendar day of the month as
// zero-padded YYYY-MM-DD strings. Month must already be validated.
func MonthRange(year, month int) (start, end string) {
	// Day 0 of the next month normalises to the last day of this one.
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	start = fmt.Sprintf("%04d-%02d-01", year, month)
	end = fmt.Sprintf("%04d-%02d-%02d", year, month, lastDay)
	return start, end
}
