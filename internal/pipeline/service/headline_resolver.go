package service

import (
	"context"
	"encoding/json"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/cache"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/relevance"
	"premarket-sentiment/pkg/retry"
	"premarket-sentiment/pkg/utils"
)

// HeadlineResolver walks a priority-ordered provider chain to produce one
// headline per (stock, run). For each provider it issues the exact-phrase
// query first (relevance-filtered), then the ticker query (the query itself
// is the relevance signal). The first candidate found wins; no ranking
// across providers beyond priority order.
type HeadlineResolver struct {
	cfg       *config.Config
	log       *logger.Logger
	providers []repository.NewsRepository
	store     cache.Store
	policy    retry.Policy
	now       func() time.Time
}

func NewHeadlineResolver(cfg *config.Config, log *logger.Logger, store cache.Store, providers ...repository.NewsRepository) *HeadlineResolver {
	return &HeadlineResolver{
		cfg:       cfg,
		log:       log,
		providers: providers,
		store:     store,
		policy:    retry.Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second},
		now:       utils.TimeNowIST,
	}
}

// Resolve returns the headline for one stock. Never fails: exhausting the
// chain yields the fixed placeholder with a reason code.
func (h *HeadlineResolver) Resolve(ctx context.Context, ticker, entityName string) dto.ResolvedHeadline {
	searchName := relevance.StripSuffix(entityName)
	lookback := h.cfg.News.LookbackWindowHours

	cleanResponses := 0
	for _, provider := range h.providers {
		// Query A: exact company phrase, relevance filter on.
		candidates, err := h.fetchCandidates(ctx, provider, "name", ticker,
			func(ctx context.Context) ([]dto.NewsCandidate, error) {
				return provider.SearchName(ctx, searchName, lookback)
			})
		if err != nil {
			h.log.Error("News provider failed, skipping",
				logger.StringField("provider", provider.Name()),
				logger.StringField("ticker", ticker),
				logger.StringField("reason", string(dto.ReasonInfraFailure)),
				logger.ErrorField(err))
			continue
		}
		cleanResponses++

		for _, c := range candidates {
			if !relevance.IsRelevant(c.Title, entityName, ticker) {
				h.log.DebugContext(ctx, "Candidate rejected by relevance filter",
					logger.StringField("provider", provider.Name()),
					logger.StringField("title", c.Title))
				continue
			}
			h.log.Info("Headline resolved",
				logger.StringField("ticker", ticker),
				logger.StringField("provider", provider.Name()),
				logger.StringField("query", "name"),
				logger.StringField("headline", c.Title))
			return dto.ResolvedHeadline{Text: c.Title, Provenance: provider.Name(), Reason: dto.ReasonNone}
		}

		// Query B: ticker symbol, inherently self-selective.
		candidates, err = h.fetchCandidates(ctx, provider, "ticker", ticker,
			func(ctx context.Context) ([]dto.NewsCandidate, error) {
				return provider.SearchTicker(ctx, ticker, lookback)
			})
		if err != nil {
			h.log.Error("News provider failed, skipping",
				logger.StringField("provider", provider.Name()),
				logger.StringField("ticker", ticker),
				logger.StringField("reason", string(dto.ReasonInfraFailure)),
				logger.ErrorField(err))
			continue
		}
		cleanResponses++

		if len(candidates) > 0 {
			c := candidates[0]
			h.log.Info("Headline resolved",
				logger.StringField("ticker", ticker),
				logger.StringField("provider", provider.Name()),
				logger.StringField("query", "ticker"),
				logger.StringField("headline", c.Title))
			return dto.ResolvedHeadline{Text: c.Title, Provenance: provider.Name(), Reason: dto.ReasonNone}
		}

		h.log.Warn("Provider had no relevant candidates",
			logger.StringField("provider", provider.Name()),
			logger.StringField("ticker", ticker),
			logger.StringField("reason", string(dto.ReasonSourceIssue)))
	}

	// A coverage gap requires at least one provider to have answered
	// cleanly; when every call died in transport it is an infra failure.
	reason := dto.ReasonCoverageGap
	if cleanResponses == 0 && len(h.providers) > 0 {
		reason = dto.ReasonInfraFailure
	}
	h.log.Warn("No headline from any provider, using placeholder",
		logger.StringField("ticker", ticker),
		logger.StringField("reason", string(reason)))
	return dto.ResolvedHeadline{Text: dto.DefaultHeadline, Provenance: dto.DefaultSource, Reason: reason}
}

// fetchCandidates checks the cache before the retry-wrapped remote call and
// writes back every successful attempt, empty results included, so repeated
// runs on the same day never re-issue a query.
func (h *HeadlineResolver) fetchCandidates(ctx context.Context, provider repository.NewsRepository, op, ticker string, fetch func(context.Context) ([]dto.NewsCandidate, error)) ([]dto.NewsCandidate, error) {
	key := cache.Key(provider.Name(), op, ticker, h.now())

	if payload, found := h.store.Get(ctx, key); found {
		var cached []dto.NewsCandidate
		if err := json.Unmarshal([]byte(payload), &cached); err == nil {
			return cached, nil
		}
		// corrupt payload: fall through to refetch
	}

	candidates, err := retry.Do(ctx, h.log, h.policy, provider.Name()+"_search_"+op, fetch)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []dto.NewsCandidate{}
	}

	if raw, err := json.Marshal(candidates); err == nil {
		if err := h.store.Set(ctx, key, string(raw)); err != nil {
			h.log.Warn("Failed to cache news candidates", logger.StringField("key", key), logger.ErrorField(err))
		}
	}
	return candidates, nil
}
