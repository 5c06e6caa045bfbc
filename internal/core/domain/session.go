package domain

import "time"

// SessionRecord is one cached query result. Records are owned exclusively by
// the session memory: created on first successful completion of the loop,
// read-only thereafter, destroyed on TTL expiry, explicit clear or
// capacity-based eviction. The key (the normalised query hash) is unique;
// inserting with an existing key overwrites age and content, not identity.
type SessionRecord struct {
	// NormalisedQuery is the canonical query this record answers.
	NormalisedQuery string

	// Payload is the complete response for the query.
	Payload *LookupResponse

	// CreatedAt is when the record was (last) written.
	CreatedAt time.Time

	// LastAccessedAt is when the record was last read.
	LastAccessedAt time.Time
}

// Age returns how old the record is at the given instant.
func (r SessionRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// PaginationCursor tracks progress through the active query's results.
// Exactly one cursor is live per session memory instance: a new distinct
// query replaces it, resetting every offset. Offsets only grow within a
// query session.
type PaginationCursor struct {
	// NormalisedQuery is the query being paginated.
	NormalisedQuery string

	// Page is the 1-based page number most recently served. The lookup
	// response itself shows page 1.
	Page int

	// Offsets is the next unread position per dataset.
	Offsets map[DatasetID]int
}

// CacheStats describes the session memory state.
type CacheStats struct {
	// Size is the number of cached query results.
	Size int `json:"size"`

	// TTL is the configured lifetime of a cache entry.
	TTL time.Duration `json:"ttl"`

	// Enabled is false when the result cache is switched off.
	Enabled bool `json:"enabled"`

	// ActiveQuery is the query the pagination cursor points at, if any.
	ActiveQuery string `json:"active_query,omitempty"`

	// Page is the 1-based page number most recently served.
	Page int `json:"page,omitempty"`

	// PageSize is the per-dataset page size.
	PageSize int `json:"page_size,omitempty"`
}
