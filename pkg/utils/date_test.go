package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingDatesSkipsWeekends(t *testing.T) {
	// Mon 2025-07-07 through Sun 2025-07-13: five weekdays.
	start, err := ParseDate("2025-07-07")
	require.NoError(t, err)
	end, err := ParseDate("2025-07-13")
	require.NoError(t, err)

	dates := TradingDates(start, end)
	require.Len(t, dates, 5)
	assert.Equal(t, time.Monday, dates[0].Weekday())
	assert.Equal(t, time.Friday, dates[4].Weekday())
}

func TestTradingDatesInclusiveBounds(t *testing.T) {
	day, err := ParseDate("2025-07-09") // a Wednesday
	require.NoError(t, err)

	dates := TradingDates(day, day)
	require.Len(t, dates, 1)
	assert.Equal(t, "2025-07-09", dates[0].Format(DateLayout))
}

func TestTradingDatesWeekendOnlyRange(t *testing.T) {
	start, _ := ParseDate("2025-07-12") // Saturday
	end, _ := ParseDate("2025-07-13")   // Sunday
	assert.Empty(t, TradingDates(start, end))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("12/07/2025")
	assert.Error(t, err)
}
