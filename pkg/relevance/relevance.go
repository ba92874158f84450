// Package relevance decides whether a headline genuinely concerns a target
// company, rejecting substring false positives such as "State Bank of India"
// matching "Bank of India".
package relevance

import (
	"regexp"
	"strings"
)

// Corporate suffixes stripped before building search queries. Only true
// legal suffixes: business descriptors like "Industries" carry meaning and
// must stay.
var corporateSuffixes = []string{
	"limited", "ltd", "ltd.", "corporation", "corp", "corp.",
}

var suffixPattern = buildSuffixPattern()

func buildSuffixPattern() *regexp.Regexp {
	quoted := make([]string, len(corporateSuffixes))
	for i, s := range corporateSuffixes {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`(?i)[\s,]+(` + strings.Join(quoted, "|") + `)[\s.]*$`)
}

// StripSuffix removes a trailing corporate suffix from a company long name:
// "Bank of India Limited" -> "Bank of India".
func StripSuffix(longName string) string {
	return strings.TrimSpace(suffixPattern.ReplaceAllString(longName, ""))
}

// IsRelevant reports whether title mentions the entity as a standalone
// phrase. The match is case-insensitive and word-bounded, and an occurrence
// is rejected when the character immediately preceding it is alphanumeric:
// that means the phrase is embedded in a longer entity name.
//
// The ticker, when given, is accepted as an alternative standalone term.
func IsRelevant(title, entityName, ticker string) bool {
	titleLower := strings.ToLower(title)

	if standaloneMatch(titleLower, strings.ToLower(entityName)) {
		return true
	}

	stripped := strings.ToLower(StripSuffix(entityName))
	if stripped != "" && standaloneMatch(titleLower, stripped) {
		return true
	}

	if ticker != "" && standaloneMatch(titleLower, strings.ToLower(ticker)) {
		return true
	}

	return false
}

func standaloneMatch(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return false
	}

	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		before := strings.TrimRight(text[:loc[0]], " \t\r\n")
		if before != "" && isAlphanumeric(before[len(before)-1]) {
			continue // embedded inside a longer entity word
		}
		return true
	}
	return false
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
