package dto

import "time"

// Headline provenance and reason codes.
const (
	// DefaultHeadline is the placeholder emitted when no provider yields a
	// relevant article. The sentiment scorer short-circuits on it.
	DefaultHeadline = "No major headline available"
	// DefaultSource is the provenance tag for the placeholder path.
	DefaultSource = "default"
)

// ReasonCode classifies why a headline could not be resolved.
type ReasonCode string

const (
	ReasonNone ReasonCode = ""
	// ReasonCoverageGap means every provider answered but none had a
	// relevant article.
	ReasonCoverageGap ReasonCode = "COVERAGE_GAP"
	// ReasonSourceIssue means a provider responded cleanly with nothing.
	ReasonSourceIssue ReasonCode = "SOURCE_ISSUE"
	// ReasonInfraFailure means transport or parse failure after retries.
	ReasonInfraFailure ReasonCode = "INFRA_FAILURE"
)

// NewsCandidate is one article produced by a provider query. Ephemeral:
// candidates live only for the duration of a resolution attempt (and in
// the response cache as raw payloads).
type NewsCandidate struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// ResolvedHeadline is the outcome of the provider fallback chain for one
// (stock, run).
type ResolvedHeadline struct {
	Text       string
	Provenance string // provider name or DefaultSource
	Reason     ReasonCode
}

// NewsDataResponse mirrors the NewsData.io /api/1/latest envelope.
type NewsDataResponse struct {
	Status  string            `json:"status"`
	Results []NewsDataArticle `json:"results"`
}

type NewsDataArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	SourceID    string `json:"source_id"`
	PubDate     string `json:"pubDate"` // "2006-01-02 15:04:05"
	Description string `json:"description"`
}
