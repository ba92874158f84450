package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	newsDataSourceName = "newsdata"
	newsDataPubDateFmt = "2006-01-02 15:04:05"
)

type newsDataRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewNewsDataRepository creates the NewsData.io provider. The free tier is
// credit-limited, so requests are rate-limited and callers are expected to
// cache aggressively.
func NewNewsDataRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.NewsData.MaxRequestPerMinute)
	return &newsDataRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *newsDataRepository) Name() string {
	return newsDataSourceName
}

func (r *newsDataRepository) SearchName(ctx context.Context, entityName string, windowHours int) ([]dto.NewsCandidate, error) {
	return r.search(ctx, fmt.Sprintf("%q", entityName), windowHours)
}

func (r *newsDataRepository) SearchTicker(ctx context.Context, ticker string, windowHours int) ([]dto.NewsCandidate, error) {
	return r.search(ctx, fmt.Sprintf("%q", ticker), windowHours)
}

func (r *newsDataRepository) search(ctx context.Context, query string, windowHours int) ([]dto.NewsCandidate, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	params := url.Values{}
	params.Set("apikey", r.cfg.NewsData.APIKey)
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("country", "in")
	params.Set("category", "business")
	params.Set("prioritydomain", "top")
	params.Set("removeduplicate", "1")

	apiURL := r.cfg.NewsData.BaseURL + "?" + params.Encode()
	r.log.DebugContext(ctx, "Fetching NewsData.io", logger.StringField("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to NewsData API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("newsdata API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded dto.NewsDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode NewsData response: %w", err)
	}

	// NewsData has no server-side window operator; filter locally.
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	candidates := make([]dto.NewsCandidate, 0, len(decoded.Results))
	for _, article := range decoded.Results {
		if article.Title == "" {
			continue
		}
		publishedAt, err := time.Parse(newsDataPubDateFmt, article.PubDate)
		if err != nil {
			continue
		}
		if publishedAt.Before(cutoff) {
			continue
		}
		source := article.SourceID
		if source == "" {
			source = newsDataSourceName
		}
		candidates = append(candidates, dto.NewsCandidate{
			Title:       article.Title,
			Source:      source,
			URL:         article.Link,
			PublishedAt: publishedAt,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	r.log.DebugContext(ctx, "NewsData.io parsed",
		logger.StringField("query", query),
		logger.IntField("candidates", len(candidates)))
	return candidates, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
