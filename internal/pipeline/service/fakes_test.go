package service

import (
	"context"
	"sync"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/retry"
	"premarket-sentiment/pkg/utils"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Pipeline: config.Pipeline{
			Stocks:        []string{"BANKINDIA"},
			DateRange:     config.DateRange{Start: "2025-06-02", End: "2025-06-06"},
			OutputDir:     "output",
			BufferDays:    10,
			MaxConcurrent: 2,
		},
		News:   config.News{LookbackWindowHours: 72},
		Gemini: config.Gemini{Model: "gemini-2.0-flash"},
	}
}

func noSleepPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}
}

// weekdayPoints builds a synthetic daily close series over the weekdays of
// [start, end], each close one rupee above the previous.
func weekdayPoints(start, end time.Time, baseClose float64) []dto.PricePoint {
	dates := utils.TradingDates(start, end)
	points := make([]dto.PricePoint, 0, len(dates))
	for i, d := range dates {
		points = append(points, dto.PricePoint{
			Date:   d,
			Close:  baseClose + float64(i),
			Volume: int64(1000 + i),
		})
	}
	return points
}

// The fakes are shared by engine tests that run workers concurrently, so
// every call counter is mutex-guarded.

type fakeMarketRepo struct {
	points      []dto.PricePoint
	historyErr  error
	income      map[string]float64
	incomeErr   error
	longName    string
	longNameErr error

	mu           sync.Mutex
	historyCalls int
	incomeCalls  int
	lastParam    dto.GetHistoryParam
}

func (f *fakeMarketRepo) Name() string { return "yahoo_finance" }

func (f *fakeMarketRepo) FetchHistory(_ context.Context, param dto.GetHistoryParam) ([]dto.PricePoint, error) {
	f.mu.Lock()
	f.historyCalls++
	f.lastParam = param
	f.mu.Unlock()
	return f.points, f.historyErr
}

func (f *fakeMarketRepo) FetchQuarterlyNetIncome(context.Context, string) (map[string]float64, error) {
	f.mu.Lock()
	f.incomeCalls++
	f.mu.Unlock()
	return f.income, f.incomeErr
}

func (f *fakeMarketRepo) FetchLongName(context.Context, string) (string, error) {
	return f.longName, f.longNameErr
}

func (f *fakeMarketRepo) HistoryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls
}

func (f *fakeMarketRepo) IncomeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incomeCalls
}

func (f *fakeMarketRepo) LastParam() dto.GetHistoryParam {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastParam
}

type fakeNewsRepo struct {
	name             string
	nameCandidates   []dto.NewsCandidate
	nameErr          error
	tickerCandidates []dto.NewsCandidate
	tickerErr        error

	mu          sync.Mutex
	nameCalls   int
	tickerCalls int
}

func (f *fakeNewsRepo) Name() string { return f.name }

func (f *fakeNewsRepo) SearchName(context.Context, string, int) ([]dto.NewsCandidate, error) {
	f.mu.Lock()
	f.nameCalls++
	f.mu.Unlock()
	return f.nameCandidates, f.nameErr
}

func (f *fakeNewsRepo) SearchTicker(context.Context, string, int) ([]dto.NewsCandidate, error) {
	f.mu.Lock()
	f.tickerCalls++
	f.mu.Unlock()
	return f.tickerCandidates, f.tickerErr
}

func (f *fakeNewsRepo) NameCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameCalls
}

func (f *fakeNewsRepo) TickerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickerCalls
}

type fakeClassifier struct {
	modelID string
	result  dto.Classification
	err     error

	mu    sync.Mutex
	calls int
}

func (f *fakeClassifier) ModelID() string { return f.modelID }

func (f *fakeClassifier) Classify(context.Context, string) (*dto.Classification, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	result := f.result
	return &result, nil
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClassifierFactory struct {
	classifier repository.SentimentRepository
	err        error

	mu    sync.Mutex
	calls int
}

func (f *fakeClassifierFactory) build(context.Context) (repository.SentimentRepository, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.classifier, f.err
}

func (f *fakeClassifierFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
