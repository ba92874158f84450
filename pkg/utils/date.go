package utils

import (
	"fmt"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD format used across the pipeline.
const DateLayout = "2006-01-02"

// GetISTLocation returns the NSE exchange timezone.
func GetISTLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// TimeNowIST returns the current time in the exchange timezone.
func TimeNowIST() time.Time {
	return time.Now().In(GetISTLocation())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// TradingDates returns the weekdays between start and end inclusive.
// Exchange holidays are not excluded: the market provider simply has no
// point for those dates and the engine skips the row.
func TradingDates(start, end time.Time) []time.Time {
	var dates []time.Time
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			dates = append(dates, cur)
		}
	}
	return dates
}
