package repository

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"

	"github.com/mmcdole/gofeed"
)

const googleSourceName = "google"

type googleNewsRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	parser *gofeed.Parser
}

// NewGoogleNewsRepository creates the Google News RSS provider. Date
// filtering is server-side via the when:<N>d query operator, derived from
// the lookback window.
func NewGoogleNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &googleNewsRepository{
		cfg:    cfg,
		log:    log,
		parser: gofeed.NewParser(),
	}
}

func (r *googleNewsRepository) Name() string {
	return googleSourceName
}

// SearchName issues Query A: the exact company phrase plus market
// qualifier terms.
func (r *googleNewsRepository) SearchName(ctx context.Context, entityName string, windowHours int) ([]dto.NewsCandidate, error) {
	query := fmt.Sprintf("%q (NSE OR shares OR stock) when:%dd", entityName, windowDays(windowHours))
	return r.search(ctx, query)
}

// SearchTicker issues Query B: the bare ticker symbol plus the exchange
// qualifier. The ticker itself is the relevance signal.
func (r *googleNewsRepository) SearchTicker(ctx context.Context, ticker string, windowHours int) ([]dto.NewsCandidate, error) {
	query := fmt.Sprintf("%q NSE when:%dd", ticker, windowDays(windowHours))
	return r.search(ctx, query)
}

func (r *googleNewsRepository) search(ctx context.Context, query string) ([]dto.NewsCandidate, error) {
	feedURL := fmt.Sprintf("%s?q=%s&hl=en-IN&gl=IN&ceid=IN:en",
		r.cfg.GoogleNews.BaseURL, url.QueryEscape(query))
	r.log.DebugContext(ctx, "Fetching Google News RSS", logger.StringField("query", query))

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	candidates := make([]dto.NewsCandidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.PublishedParsed == nil {
			continue
		}
		source := googleSourceName
		if item.Custom != nil && item.Custom["source"] != "" {
			source = item.Custom["source"]
		}
		candidates = append(candidates, dto.NewsCandidate{
			Title:       item.Title,
			Source:      source,
			URL:         item.Link,
			PublishedAt: *item.PublishedParsed,
		})
	}

	// Newest first: the resolver accepts the first candidate that survives
	// filtering.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	r.log.DebugContext(ctx, "Google News RSS parsed",
		logger.StringField("query", query),
		logger.IntField("candidates", len(candidates)))
	return candidates, nil
}

func windowDays(windowHours int) int {
	if windowHours <= 0 {
		return 3
	}
	return int(math.Ceil(float64(windowHours) / 24.0))
}
