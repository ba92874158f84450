package repository

import (
	"context"
	"errors"

	"premarket-sentiment/internal/entity"
	"premarket-sentiment/internal/pipeline/dto"
)

// ErrNetIncomeNotFound marks a vendor payload that lacks every known
// net-income line item. Callers treat it as "fundamentals unavailable",
// not as a failure.
var ErrNetIncomeNotFound = errors.New("net income line item not found")

// MarketDataRepository fetches price series and fundamentals for a ticker.
type MarketDataRepository interface {
	// Name tags market provenance in the row's data source log.
	Name() string
	// FetchHistory returns daily price points ordered by date, inclusive of
	// both window bounds when the exchange traded on them.
	FetchHistory(ctx context.Context, param dto.GetHistoryParam) ([]dto.PricePoint, error)
	// FetchQuarterlyNetIncome returns quarter-end date (YYYY-MM-DD) to net
	// income amount, scanning an ordered list of vendor label aliases.
	// Returns ErrNetIncomeNotFound when no alias is present.
	FetchQuarterlyNetIncome(ctx context.Context, ticker string) (map[string]float64, error)
	// FetchLongName resolves the company long name used to build news
	// queries.
	FetchLongName(ctx context.Context, ticker string) (string, error)
}

// NewsRepository is one news source in the fallback chain. SearchName is
// the exact-phrase query strategy (Query A); SearchTicker is the
// ticker-symbol strategy (Query B). Both return candidates in the
// provider's own freshness order, newest first, or an empty slice when the
// provider answered cleanly with nothing.
type NewsRepository interface {
	Name() string
	SearchName(ctx context.Context, entityName string, windowHours int) ([]dto.NewsCandidate, error)
	SearchTicker(ctx context.Context, ticker string, windowHours int) ([]dto.NewsCandidate, error)
}

// SentimentRepository classifies text into positive/negative/neutral with
// a confidence.
type SentimentRepository interface {
	ModelID() string
	Classify(ctx context.Context, text string) (*dto.Classification, error)
}

// PipelineRowRepository persists emitted rows.
type PipelineRowRepository interface {
	SaveAll(ctx context.Context, rows []entity.PipelineRow) error
}
