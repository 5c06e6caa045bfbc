package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormaliseQuery returns the canonical form of a raw query: lower-cased with
// surrounding whitespace removed. Two queries with the same normalised form
// are treated as identical for caching and pagination.
func NormaliseQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// QueryKey returns the cache key for a normalised query.
func QueryKey(normalised string) string {
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}

// Continuation keywords signal that the user wants the next page of the
// previous answer rather than a fresh lookup.
var continuationKeywords = []string{
	"more", "next", "continue", "show more", "additional",
	"rest", "others", "see more", "keep going", "more results",
	"show all", "full list", "complete list", "everything",
}

// IsContinuationRequest reports whether the input asks for more results from
// the previous query. Only short phrases qualify, so a new clinical term that
// happens to contain a keyword (e.g. "Baltimore criteria") is not mistaken
// for one.
func IsContinuationRequest(input string) bool {
	normalised := NormaliseQuery(input)
	if normalised == "" {
		return false
	}
	if len(strings.Fields(normalised)) > 3 {
		return false
	}
	for _, kw := range continuationKeywords {
		if strings.Contains(normalised, kw) {
			return true
		}
	}
	return false
}
