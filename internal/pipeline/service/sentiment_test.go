package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"
)

func TestScorePlaceholderShortCircuits(t *testing.T) {
	factory := &fakeClassifierFactory{err: errors.New("must not be constructed")}
	scorer := NewSentimentScorer(logger.NewNop(), factory.build)

	got, err := scorer.Score(context.Background(), dto.DefaultHeadline)
	require.NoError(t, err)

	assert.Equal(t, dto.SentimentResult{Label: "Neutral", Score: 0.0}, got)
	assert.Equal(t, 0, factory.Calls())
}

func TestScoreMapsLabelToSignedScore(t *testing.T) {
	tests := []struct {
		name           string
		classification dto.Classification
		want           dto.SentimentResult
	}{
		{
			name:           "positive takes plus confidence",
			classification: dto.Classification{Label: "positive", Confidence: 0.91},
			want:           dto.SentimentResult{Label: "Positive", Score: 0.91},
		},
		{
			name:           "negative takes minus confidence",
			classification: dto.Classification{Label: "negative", Confidence: 0.66},
			want:           dto.SentimentResult{Label: "Negative", Score: -0.66},
		},
		{
			name:           "neutral is always zero",
			classification: dto.Classification{Label: "neutral", Confidence: 0.8},
			want:           dto.SentimentResult{Label: "Neutral", Score: 0.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &fakeClassifierFactory{classifier: &fakeClassifier{modelID: "gemini-2.0-flash", result: tt.classification}}
			scorer := NewSentimentScorer(logger.NewNop(), factory.build)

			got, err := scorer.Score(context.Background(), "Bank of India posts record profit")
			require.NoError(t, err)
			assert.Equal(t, tt.want.Label, got.Label)
			assert.InDelta(t, tt.want.Score, got.Score, 1e-9)
		})
	}
}

func TestScoreBuildsClassifierOnce(t *testing.T) {
	classifier := &fakeClassifier{modelID: "gemini-2.0-flash", result: dto.Classification{Label: "positive", Confidence: 0.5}}
	factory := &fakeClassifierFactory{classifier: classifier}
	scorer := NewSentimentScorer(logger.NewNop(), factory.build)

	_, err := scorer.Score(context.Background(), "headline one")
	require.NoError(t, err)
	_, err = scorer.Score(context.Background(), "headline two")
	require.NoError(t, err)

	assert.Equal(t, 1, factory.Calls())
	assert.Equal(t, 2, classifier.Calls())
	assert.Equal(t, "gemini-2.0-flash", scorer.ModelID())
}

func TestScorePropagatesInitFailure(t *testing.T) {
	factory := &fakeClassifierFactory{err: errors.New("bad api key")}
	scorer := NewSentimentScorer(logger.NewNop(), factory.build)

	_, err := scorer.Score(context.Background(), "a real headline")
	require.Error(t, err)
	assert.Empty(t, scorer.ModelID())
}
