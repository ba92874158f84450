package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/cache"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/utils"
)

func newMarketResolver(repo repository.MarketDataRepository) *MarketSeriesResolver {
	r := NewMarketSeriesResolver(newTestConfig(), logger.NewNop(), repo, cache.NewMemoryStore())
	r.policy = noSleepPolicy(3)
	return r
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestLoadSeriesComputesPctChangeAgainstPrecedingPoint(t *testing.T) {
	repo := &fakeMarketRepo{points: []dto.PricePoint{
		{Date: mustDate(t, "2025-06-02"), Close: 100, Volume: 500},
		{Date: mustDate(t, "2025-06-03"), Close: 110, Volume: 600},
		{Date: mustDate(t, "2025-06-05"), Close: 99, Volume: 700},
	}}
	resolver := newMarketResolver(repo)

	series, err := resolver.LoadSeries(context.Background(), "BANKINDIA", mustDate(t, "2025-06-02"), mustDate(t, "2025-06-06"))
	require.NoError(t, err)

	row, ok := series.Row(mustDate(t, "2025-06-03"))
	require.True(t, ok)
	assert.InDelta(t, 10.0, row.PctChange, 1e-9)
	assert.Equal(t, int64(600), row.Volume)

	// 2025-06-04 was skipped by the vendor, so the next point compares
	// against 2025-06-03, not the calendar-previous day.
	row, ok = series.Row(mustDate(t, "2025-06-05"))
	require.True(t, ok)
	assert.InDelta(t, -10.0, row.PctChange, 1e-9)
}

func TestLoadSeriesRequestsBufferedWindow(t *testing.T) {
	repo := &fakeMarketRepo{points: weekdayPoints(mustDate(t, "2025-05-19"), mustDate(t, "2025-06-06"), 100)}
	resolver := newMarketResolver(repo)

	start := mustDate(t, "2025-06-02")
	_, err := resolver.LoadSeries(context.Background(), "BANKINDIA", start, mustDate(t, "2025-06-06"))
	require.NoError(t, err)

	assert.Equal(t, start.AddDate(0, 0, -10), repo.LastParam().StartDate)
}

func TestLoadSeriesServesSecondCallFromCache(t *testing.T) {
	repo := &fakeMarketRepo{points: weekdayPoints(mustDate(t, "2025-05-19"), mustDate(t, "2025-06-06"), 100)}
	resolver := newMarketResolver(repo)

	start, end := mustDate(t, "2025-06-02"), mustDate(t, "2025-06-06")
	_, err := resolver.LoadSeries(context.Background(), "BANKINDIA", start, end)
	require.NoError(t, err)
	_, err = resolver.LoadSeries(context.Background(), "BANKINDIA", start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.HistoryCalls())
}

func TestComputePriceRowDistinctWindowsSameDay(t *testing.T) {
	repo := &fakeMarketRepo{points: weekdayPoints(mustDate(t, "2025-05-19"), mustDate(t, "2025-06-06"), 100)}
	resolver := newMarketResolver(repo)

	// Two single-date lookups on the same run day must not share a cached
	// series: the Monday window does not cover Friday.
	monday, err := resolver.ComputePriceRow(context.Background(), "BANKINDIA", mustDate(t, "2025-06-02"))
	require.NoError(t, err)
	require.NotNil(t, monday)

	friday, err := resolver.ComputePriceRow(context.Background(), "BANKINDIA", mustDate(t, "2025-06-06"))
	require.NoError(t, err)
	require.NotNil(t, friday)
	assert.Equal(t, mustDate(t, "2025-06-06"), friday.Date)

	assert.Equal(t, 2, repo.HistoryCalls())
}

func TestRowReturnsFalseForAbsentDate(t *testing.T) {
	repo := &fakeMarketRepo{points: []dto.PricePoint{
		{Date: mustDate(t, "2025-06-02"), Close: 100, Volume: 500},
		{Date: mustDate(t, "2025-06-03"), Close: 110, Volume: 600},
	}}
	resolver := newMarketResolver(repo)

	series, err := resolver.LoadSeries(context.Background(), "BANKINDIA", mustDate(t, "2025-06-02"), mustDate(t, "2025-06-06"))
	require.NoError(t, err)

	_, ok := series.Row(mustDate(t, "2025-06-04"))
	assert.False(t, ok)

	// First stored point has no predecessor, so no pct change either.
	_, ok = series.Row(mustDate(t, "2025-06-02"))
	assert.False(t, ok)
}

func TestComputeYoyGrowth(t *testing.T) {
	tests := []struct {
		name   string
		income map[string]float64
		want   *float64
	}{
		{
			name: "positive growth against positive base",
			income: map[string]float64{
				"2025-06-30": 150,
				"2024-06-30": 100,
			},
			want: utils.ToPointer(50.0),
		},
		{
			name: "loss base keeps the sign meaningful",
			income: map[string]float64{
				"2025-06-30": 50,
				"2024-06-30": -100,
			},
			want: utils.ToPointer(150.0),
		},
		{
			name: "prior quarter within tolerance is matched",
			income: map[string]float64{
				"2025-06-30": 120,
				"2024-07-15": 100, // 15 days off the 365-day target
			},
			want: utils.ToPointer(20.0),
		},
		{
			name: "no quarter within tolerance",
			income: map[string]float64{
				"2025-06-30": 120,
				"2024-09-30": 100,
			},
			want: nil,
		},
		{
			name: "zero base yields no figure",
			income: map[string]float64{
				"2025-06-30": 120,
				"2024-06-30": 0,
			},
			want: nil,
		},
		{
			name:   "single quarter yields no figure",
			income: map[string]float64{"2025-06-30": 120},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newMarketResolver(&fakeMarketRepo{income: tt.income})
			got, err := resolver.ComputeYoyGrowth(context.Background(), "BANKINDIA")
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tt.want, *got, 1e-9)
			}
		})
	}
}

func TestComputeYoyGrowthMissingLineItemIsNotAnError(t *testing.T) {
	repo := &fakeMarketRepo{incomeErr: repository.ErrNetIncomeNotFound}
	resolver := newMarketResolver(repo)

	got, err := resolver.ComputeYoyGrowth(context.Background(), "BANKINDIA")
	require.NoError(t, err)
	assert.Nil(t, got)

	// A missing line item is a clean answer: exactly one remote call, no
	// retries, and the second lookup is served from the cache.
	assert.Equal(t, 1, repo.IncomeCalls())

	got, err = resolver.ComputeYoyGrowth(context.Background(), "BANKINDIA")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, repo.IncomeCalls())
}

func TestResolveLongNameFallsBackToTicker(t *testing.T) {
	resolver := newMarketResolver(&fakeMarketRepo{longNameErr: errors.New("quote api down")})
	resolver.policy = noSleepPolicy(1)

	name := resolver.ResolveLongName(context.Background(), "BANKINDIA")
	assert.Equal(t, "BANKINDIA", name)
}

func TestResolveLongName(t *testing.T) {
	resolver := newMarketResolver(&fakeMarketRepo{longName: "Bank of India Limited"})

	name := resolver.ResolveLongName(context.Background(), "BANKINDIA")
	assert.Equal(t, "Bank of India Limited", name)
}
