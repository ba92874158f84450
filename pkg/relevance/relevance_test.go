package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelevantRejectsEmbeddedEntity(t *testing.T) {
	// "State Bank of India" contains "Bank of India" as a substring but is a
	// different company.
	assert.False(t, IsRelevant("State Bank of India announces record quarter", "Bank of India", ""))
}

func TestIsRelevantAcceptsStandaloneEntity(t *testing.T) {
	assert.True(t, IsRelevant("Bank of India posts profit", "Bank of India", ""))
}

func TestIsRelevantAcceptsAfterPunctuation(t *testing.T) {
	// Comma before the phrase is not alphanumeric, so the match stands.
	assert.True(t, IsRelevant("Vedanta, BPCL, Hindustan Zinc among top gainers", "Hindustan Zinc", ""))
}

func TestIsRelevantIsCaseInsensitive(t *testing.T) {
	assert.True(t, IsRelevant("BANK OF INDIA raises lending rates", "Bank of India", ""))
}

func TestIsRelevantMatchesStrippedSuffix(t *testing.T) {
	assert.True(t, IsRelevant("Bank of India posts profit", "Bank of India Limited", ""))
}

func TestIsRelevantFallsBackToTicker(t *testing.T) {
	assert.True(t, IsRelevant("BANKINDIA hits 52-week high", "Bank of India", "BANKINDIA"))
	assert.False(t, IsRelevant("Unrelated market wrap", "Bank of India", "BANKINDIA"))
}

func TestIsRelevantRejectsDigitPrefix(t *testing.T) {
	assert.False(t, IsRelevant("big4BANKINDIA movers today", "Bank of India", "BANKINDIA"))
}

func TestStripSuffix(t *testing.T) {
	assert.Equal(t, "Bank of India", StripSuffix("Bank of India Limited"))
	assert.Equal(t, "Hindustan Zinc", StripSuffix("Hindustan Zinc Ltd."))
	assert.Equal(t, "Prime Focus", StripSuffix("Prime Focus Limited"))
	// Business descriptors are not legal suffixes and must survive.
	assert.Equal(t, "Adani Industries", StripSuffix("Adani Industries"))
}
