package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/cache"
	"premarket-sentiment/pkg/logger"
)

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type engineFixture struct {
	engine     *Engine
	marketRepo *fakeMarketRepo
	newsRepo   *fakeNewsRepo
	factory    *fakeClassifierFactory
	notifier   *fakeNotifier
}

func newEngineFixture(t *testing.T, cfg *config.Config) *engineFixture {
	t.Helper()
	cfg.Pipeline.OutputDir = t.TempDir()
	log := logger.NewNop()
	store := cache.NewMemoryStore()

	marketRepo := &fakeMarketRepo{
		points: weekdayPoints(mustDate(t, "2025-05-19"), mustDate(t, "2025-06-06"), 100),
		income: map[string]float64{
			"2025-03-31": 150,
			"2024-03-31": 100,
		},
		longName: "Bank of India Limited",
	}
	newsRepo := &fakeNewsRepo{
		name:           "google_news",
		nameCandidates: []dto.NewsCandidate{candidate("Bank of India expands branch network")},
	}
	factory := &fakeClassifierFactory{
		classifier: &fakeClassifier{modelID: "gemini-2.0-flash", result: dto.Classification{Label: "positive", Confidence: 0.7}},
	}
	notifier := &fakeNotifier{}

	market := NewMarketSeriesResolver(cfg, log, marketRepo, store)
	market.policy = noSleepPolicy(1)
	headlines := NewHeadlineResolver(cfg, log, store, newsRepo)
	headlines.policy = noSleepPolicy(1)
	scorer := NewSentimentScorer(log, factory.build)

	engine := NewEngine(cfg, log, market, headlines, scorer,
		NewRowValidator(log), NewOutputWriter(cfg.Pipeline.OutputDir, log), nil, notifier)

	return &engineFixture{
		engine:     engine,
		marketRepo: marketRepo,
		newsRepo:   newsRepo,
		factory:    factory,
		notifier:   notifier,
	}
}

func TestEngineRunEmitsOneRowPerStockPerTradingDate(t *testing.T) {
	cfg := newTestConfig()
	cfg.Pipeline.Stocks = []string{"BANKINDIA", "HINDZINC", "PFOCUS"}
	fx := newEngineFixture(t, cfg)

	result, err := fx.engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Rows, 15) // 3 stocks x 5 weekdays
	assert.True(t, result.Report.Passed())

	for i, row := range result.Rows {
		assert.GreaterOrEqual(t, row.SentimentScore, -1.0)
		assert.LessOrEqual(t, row.SentimentScore, 1.0)
		assert.Equal(t,
			"market=yahoo_finance|news=google_news|sentiment=gemini-2.0-flash|fundamentals=yahoo_finance",
			row.DataSourceLog)
		require.NotNil(t, row.YoYNetIncome)
		assert.InDelta(t, 50.0, *row.YoYNetIncome, 1e-9)
		if i > 0 {
			prev := result.Rows[i-1]
			ordered := prev.Date.Before(row.Date) ||
				(prev.Date.Equal(row.Date) && prev.Stock < row.Stock)
			assert.True(t, ordered, "rows must be sorted by (date, stock)")
		}
	}

	// One history fetch per stock; repeated dates come from the series.
	assert.Equal(t, 3, fx.marketRepo.HistoryCalls())
	assert.Len(t, fx.notifier.messages, 1)
}

func TestEngineRunWritesOutputFiles(t *testing.T) {
	cfg := newTestConfig()
	fx := newEngineFixture(t, cfg)

	result, err := fx.engine.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, result.CSVPath)
	assert.FileExists(t, filepath.Join(cfg.Pipeline.OutputDir, "ohlcv_BANKINDIA.csv"))
	assert.FileExists(t, filepath.Join(cfg.Pipeline.OutputDir, "fundamentals.json"))

	raw, err := os.ReadFile(result.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Date,Stock,Pct_Change,Volume")

	report, err := fx.engine.ValidateFile("")
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

func TestEngineRunPlaceholderHeadlineScoresNeutral(t *testing.T) {
	cfg := newTestConfig()
	fx := newEngineFixture(t, cfg)
	fx.newsRepo.nameCandidates = nil

	result, err := fx.engine.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.Rows)
	for _, row := range result.Rows {
		assert.Equal(t, dto.DefaultHeadline, row.Headline)
		assert.Equal(t, "Neutral", row.SentimentLabel)
		assert.Zero(t, row.SentimentScore)
		assert.Contains(t, row.DataSourceLog, "news=default")
	}
	assert.Equal(t, 0, fx.factory.Calls())
}

func TestEngineRunClassifierFailureFallsBackToNeutral(t *testing.T) {
	cfg := newTestConfig()
	fx := newEngineFixture(t, cfg)
	fx.factory.classifier = &fakeClassifier{modelID: "gemini-2.0-flash", err: errors.New("quota exceeded")}

	result, err := fx.engine.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.Rows)
	for _, row := range result.Rows {
		assert.Equal(t, "Neutral", row.SentimentLabel)
		assert.Zero(t, row.SentimentScore)
		assert.Contains(t, row.DataSourceLog, "sentiment=error")
	}
}

func TestEngineRunSkipsStockWhoseHistoryFails(t *testing.T) {
	cfg := newTestConfig()
	cfg.Pipeline.Stocks = []string{"BANKINDIA"}
	fx := newEngineFixture(t, cfg)
	fx.marketRepo.historyErr = errors.New("chart api down")

	result, err := fx.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.False(t, result.Report.Passed())
}

func TestEngineRunRejectsInvertedDateRange(t *testing.T) {
	cfg := newTestConfig()
	cfg.Pipeline.DateRange = config.DateRange{Start: "2025-06-06", End: "2025-06-02"}
	fx := newEngineFixture(t, cfg)

	_, err := fx.engine.Run(context.Background())
	require.Error(t, err)
}
