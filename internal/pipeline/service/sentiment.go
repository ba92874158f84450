package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/logger"
)

// SentimentScorer maps a headline to a signed score in [-1.0, 1.0]. The
// underlying classifier is expensive to construct, so it is built once per
// process, lazily, on the first real headline.
type SentimentScorer struct {
	log           *logger.Logger
	newClassifier func(ctx context.Context) (repository.SentimentRepository, error)

	once       sync.Once
	classifier repository.SentimentRepository
	initErr    error
}

func NewSentimentScorer(log *logger.Logger, newClassifier func(ctx context.Context) (repository.SentimentRepository, error)) *SentimentScorer {
	return &SentimentScorer{log: log, newClassifier: newClassifier}
}

// ModelID reports the classifier identity for provenance logs, or "" when
// the classifier was never initialized.
func (s *SentimentScorer) ModelID() string {
	if s.classifier == nil {
		return ""
	}
	return s.classifier.ModelID()
}

// Score classifies one headline. The placeholder headline short-circuits to
// Neutral/0.0 without touching the classifier: no wasted inference, and the
// no-coverage case stays deterministic.
func (s *SentimentScorer) Score(ctx context.Context, headline string) (dto.SentimentResult, error) {
	headline = strings.TrimSpace(headline)
	if headline == "" || headline == dto.DefaultHeadline {
		return dto.SentimentResult{Label: "Neutral", Score: 0.0}, nil
	}

	s.once.Do(func() {
		s.classifier, s.initErr = s.newClassifier(ctx)
	})
	if s.initErr != nil {
		return dto.SentimentResult{}, fmt.Errorf("failed to initialize sentiment classifier: %w", s.initErr)
	}

	classification, err := s.classifier.Classify(ctx, headline)
	if err != nil {
		return dto.SentimentResult{}, err
	}

	result := mapClassification(*classification)
	s.log.DebugContext(ctx, "Headline scored",
		logger.StringField("label", result.Label),
		logger.Float64Field("score", result.Score),
		logger.StringField("headline", headline))
	return result, nil
}

// mapClassification converts class + confidence into a signed score whose
// sign always agrees with the label.
func mapClassification(c dto.Classification) dto.SentimentResult {
	confidence := math.Round(c.Confidence*10000) / 10000
	switch c.Label {
	case "positive":
		return dto.SentimentResult{Label: "Positive", Score: confidence}
	case "negative":
		return dto.SentimentResult{Label: "Negative", Score: -confidence}
	default:
		return dto.SentimentResult{Label: "Neutral", Score: 0.0}
	}
}
