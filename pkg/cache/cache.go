package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a persistent key-value response cache. Keys embed the calendar
// day (see Key), so entries expire in effect when the day rolls over.
//
// Get returns the stored payload and whether it was found. A corrupt or
// unreadable entry is reported as a miss, never as an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, payload string) error
	Close() error
}

// entry is the stored envelope around a payload.
type entry struct {
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Key builds the canonical cache key: {provider}:{op}:{ticker}:{YYYY-MM-DD}.
func Key(provider, op, ticker string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", provider, op, ticker, day.Format("2006-01-02"))
}

func encodeEntry(payload string) (string, error) {
	raw, err := json.Marshal(entry{Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return string(raw), nil
}

func decodeEntry(raw string) (string, bool) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return "", false
	}
	return e.Payload, true
}
