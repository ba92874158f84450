package dto

// Classification is the raw output of the three-class sentiment model.
type Classification struct {
	Label      string  `json:"label"`      // "positive", "negative" or "neutral"
	Confidence float64 `json:"confidence"` // softmax-style confidence in [0, 1]
}

// SentimentResult is the scored sentiment attached to a row.
// Score is in [-1.0, 1.0]; its sign always agrees with the label.
type SentimentResult struct {
	Label string
	Score float64
}
