package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const classifyPromptTemplate = `You are a financial news sentiment classifier.
Classify the sentiment of the following stock market headline into exactly one
of: positive, negative, neutral.

Headline: %q

Respond with ONLY a JSON object, no prose and no markdown fences:
{"label": "<positive|negative|neutral>", "confidence": <number between 0 and 1>}`

// geminiAIRepository classifies headline sentiment with the Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiAIRepository creates a rate-limited Gemini sentiment classifier.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (SentimentRepository, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	return &geminiAIRepository{
		cfg:            cfg,
		log:            log,
		genAiClient:    genAiClient,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}, nil
}

func (r *geminiAIRepository) ModelID() string {
	return r.cfg.Gemini.Model
}

// Classify runs one three-class inference call for the given text.
func (r *geminiAIRepository) Classify(ctx context.Context, text string) (*dto.Classification, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := fmt.Sprintf(classifyPromptTemplate, text)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}

	raw := resp.Text()
	classification, err := parseClassification(raw)
	if err != nil {
		r.log.Error("Failed to parse Gemini classification",
			logger.StringField("response", raw),
			logger.ErrorField(err))
		return nil, err
	}

	r.log.DebugContext(ctx, "Gemini classification",
		logger.StringField("label", classification.Label),
		logger.Float64Field("confidence", classification.Confidence))
	return classification, nil
}

// parseClassification tolerates markdown fences the model sometimes emits
// despite instructions.
func parseClassification(raw string) (*dto.Classification, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var c dto.Classification
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classification: %w", err)
	}

	c.Label = strings.ToLower(strings.TrimSpace(c.Label))
	switch c.Label {
	case "positive", "negative", "neutral":
	default:
		return nil, fmt.Errorf("unexpected classification label %q", c.Label)
	}

	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return &c, nil
}
