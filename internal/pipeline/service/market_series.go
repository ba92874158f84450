package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/cache"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/retry"
	"premarket-sentiment/pkg/utils"
)

// yoyToleranceDays bounds how far a prior-year quarter end may drift from
// (latest quarter end - 365 days) and still count as the comparison base.
const yoyToleranceDays = 20

// MarketSeriesResolver computes day-over-day price rows and YoY fundamental
// growth. Fetches are cache-checked first, then retry-wrapped.
type MarketSeriesResolver struct {
	cfg    *config.Config
	log    *logger.Logger
	repo   repository.MarketDataRepository
	store  cache.Store
	policy retry.Policy
	now    func() time.Time
}

// PriceSeries is a buffered, pct-change-annotated price history for one
// ticker. The pct change of each point is computed against the immediately
// preceding stored point, not the calendar-previous day.
type PriceSeries struct {
	points []dto.PricePoint
	pct    map[string]float64 // keyed YYYY-MM-DD; present only when a predecessor exists
}

func NewMarketSeriesResolver(cfg *config.Config, log *logger.Logger, repo repository.MarketDataRepository, store cache.Store) *MarketSeriesResolver {
	return &MarketSeriesResolver{
		cfg:    cfg,
		log:    log,
		repo:   repo,
		store:  store,
		policy: retry.Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second},
		now:    utils.TimeNowIST,
	}
}

// SourceName tags market provenance in the row's data source log.
func (r *MarketSeriesResolver) SourceName() string {
	return r.repo.Name()
}

// LoadSeries fetches the price history covering [start - bufferDays, end]
// and annotates it with pct changes. The buffer outlasts weekends and
// multi-day holiday clusters so the first in-window row has a predecessor.
func (r *MarketSeriesResolver) LoadSeries(ctx context.Context, ticker string, start, end time.Time) (*PriceSeries, error) {
	bufferedStart := start.AddDate(0, 0, -r.cfg.Pipeline.BufferDays)

	// The window bounds are part of the key: different windows on the same
	// run day must not share a cached series.
	op := fmt.Sprintf("history:%s:%s", start.Format(utils.DateLayout), end.Format(utils.DateLayout))
	key := cache.Key(r.repo.Name(), op, ticker, r.now())
	var points []dto.PricePoint
	if payload, found := r.store.Get(ctx, key); found {
		if err := json.Unmarshal([]byte(payload), &points); err != nil {
			points = nil // corrupt payload is a miss
		}
	}

	if points == nil {
		fetched, err := retry.Do(ctx, r.log, r.policy, "fetch_history",
			func(ctx context.Context) ([]dto.PricePoint, error) {
				return r.repo.FetchHistory(ctx, dto.GetHistoryParam{
					Ticker:    ticker,
					StartDate: bufferedStart,
					EndDate:   end,
				})
			})
		if err != nil {
			return nil, err
		}
		points = fetched
		if raw, err := json.Marshal(points); err == nil {
			if err := r.store.Set(ctx, key, string(raw)); err != nil {
				r.log.Warn("Failed to cache price history", logger.StringField("key", key), logger.ErrorField(err))
			}
		}
	}

	if len(points) == 0 {
		r.log.Warn("No price history available", logger.StringField("ticker", ticker))
	}

	series := &PriceSeries{points: points, pct: make(map[string]float64, len(points))}
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Close
		if prev == 0 {
			continue
		}
		day := points[i].Date.Format(utils.DateLayout)
		series.pct[day] = (points[i].Close - prev) / prev * 100.0
	}
	return series, nil
}

// ComputePriceRow resolves the market slice for a single (ticker, date).
// A date absent from the series is a non-trading day: (nil, nil).
func (r *MarketSeriesResolver) ComputePriceRow(ctx context.Context, ticker string, date time.Time) (*dto.PriceRow, error) {
	series, err := r.LoadSeries(ctx, ticker, date, date)
	if err != nil {
		return nil, err
	}
	row, ok := series.Row(date)
	if !ok {
		return nil, nil
	}
	return row, nil
}

// Row restricts the series to one date. Returns false when the exchange
// did not trade that day or no predecessor exists for the pct change.
func (s *PriceSeries) Row(date time.Time) (*dto.PriceRow, bool) {
	day := date.Format(utils.DateLayout)
	pct, ok := s.pct[day]
	if !ok {
		return nil, false
	}
	for _, p := range s.points {
		if p.Date.Format(utils.DateLayout) == day {
			return &dto.PriceRow{Date: p.Date, PctChange: pct, Volume: p.Volume}, true
		}
	}
	return nil, false
}

// Points exposes the raw buffered series for audit output.
func (s *PriceSeries) Points() []dto.PricePoint {
	return s.points
}

// ComputeYoyGrowth returns the YoY net income growth for the most recent
// reported quarter, or nil when fundamentals are unavailable: no quarter
// within tolerance of one year back, a zero base, or a vendor payload
// without a recognizable net-income line.
func (r *MarketSeriesResolver) ComputeYoyGrowth(ctx context.Context, ticker string) (*float64, error) {
	key := cache.Key(r.repo.Name(), "fundamentals", ticker, r.now())

	var series map[string]float64
	if payload, found := r.store.Get(ctx, key); found {
		if err := json.Unmarshal([]byte(payload), &series); err != nil {
			series = nil
		}
	}

	if series == nil {
		fetched, err := retry.Do(ctx, r.log, r.policy, "fetch_quarterly_net_income",
			func(ctx context.Context) (map[string]float64, error) {
				fetched, err := r.repo.FetchQuarterlyNetIncome(ctx, ticker)
				// A payload without a net income line item is a clean
				// "unavailable" answer, not a transient failure: don't
				// retry it, and cache the empty result like any other.
				if errors.Is(err, repository.ErrNetIncomeNotFound) {
					return map[string]float64{}, nil
				}
				return fetched, err
			})
		if err != nil {
			return nil, err
		}
		series = fetched
		if raw, err := json.Marshal(series); err == nil {
			if err := r.store.Set(ctx, key, string(raw)); err != nil {
				r.log.Warn("Failed to cache fundamentals", logger.StringField("key", key), logger.ErrorField(err))
			}
		}
	}

	growth, ok := yoyGrowth(series)
	if !ok {
		r.log.Warn("No matching previous year quarter", logger.StringField("ticker", ticker))
		return nil, nil
	}
	return &growth, nil
}

// ResolveLongName returns the company long name for news queries, falling
// back to the raw ticker when the vendor has nothing.
func (r *MarketSeriesResolver) ResolveLongName(ctx context.Context, ticker string) string {
	key := cache.Key(r.repo.Name(), "longname", ticker, r.now())
	if name, found := r.store.Get(ctx, key); found && name != "" {
		return name
	}

	name, err := retry.Do(ctx, r.log, r.policy, "fetch_long_name",
		func(ctx context.Context) (string, error) {
			return r.repo.FetchLongName(ctx, ticker)
		})
	if err != nil || name == "" {
		r.log.Warn("Long name unavailable, falling back to ticker symbol",
			logger.StringField("ticker", ticker), logger.ErrorField(err))
		return ticker
	}

	if err := r.store.Set(ctx, key, name); err != nil {
		r.log.Warn("Failed to cache long name", logger.StringField("key", key), logger.ErrorField(err))
	}
	return name
}

// yoyGrowth finds the quarter closest to (latest - 365d) within tolerance
// and computes (current - previous) / |previous| * 100. The absolute value
// keeps the sign correct when the prior-year base was a loss.
func yoyGrowth(series map[string]float64) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}

	dates := make([]time.Time, 0, len(series))
	for day := range series {
		t, err := utils.ParseDate(day)
		if err != nil {
			continue
		}
		dates = append(dates, t)
	}
	if len(dates) < 2 {
		return 0, false
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	current := dates[0]
	currentVal := series[current.Format(utils.DateLayout)]
	target := current.AddDate(0, 0, -365)

	var best time.Time
	bestDiff := time.Duration(math.MaxInt64)
	for _, d := range dates[1:] {
		diff := target.Sub(d)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = d
		}
	}
	if bestDiff > yoyToleranceDays*24*time.Hour {
		return 0, false
	}

	previousVal := series[best.Format(utils.DateLayout)]
	if previousVal == 0 {
		return 0, false
	}

	growth := (currentVal - previousVal) / math.Abs(previousVal) * 100.0
	return math.Round(growth*100) / 100, true
}
