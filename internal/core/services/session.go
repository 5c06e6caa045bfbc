package services

import (
	"sort"
	"sync"
	"time"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// SessionMemory holds a session's query result cache and its single
// pagination cursor. The cache maps normalised-query keys to complete
// responses with lazy TTL expiry and capacity-based eviction; the cursor
// tracks paging through the most recent answer. The two are independent:
// pagination works with the cache disabled, and clearing the cache leaves
// the cursor alone.
//
// All methods are safe for concurrent use. The store is the only mutable
// state shared across queries, so every access takes the one lock.
type SessionMemory struct {
	mu       sync.Mutex
	cfg      domain.CacheConfig
	pageSize int
	entries  map[string]*domain.SessionRecord
	active   *domain.LookupResponse
	cursor   domain.PaginationCursor

	// now is swappable for tests.
	now func() time.Time
}

// NewSessionMemory creates a session memory with the given cache policy
// and per-dataset page size.
func NewSessionMemory(cfg domain.CacheConfig, pageSize int) *SessionMemory {
	return &SessionMemory{
		cfg:      cfg,
		pageSize: pageSize,
		entries:  make(map[string]*domain.SessionRecord),
		now:      time.Now,
	}
}

// Get returns the cached record for a normalised query. Expired records
// are deleted on read. Always misses when the cache is disabled.
func (m *SessionMemory) Get(normalised string) (*domain.SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled {
		return nil, false
	}

	key := domain.QueryKey(normalised)
	rec, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	now := m.now()
	if rec.Age(now) > m.cfg.TTL {
		delete(m.entries, key)
		logger.Debug("Cache entry expired for %q", normalised)
		return nil, false
	}

	rec.LastAccessedAt = now
	return rec, true
}

// Put caches the complete response for a normalised query. Inserting over
// an existing key refreshes age and content. When the insert pushes the
// cache over capacity, the oldest entries are evicted in bulk down to the
// retention target. No-op when the cache is disabled.
func (m *SessionMemory) Put(normalised string, payload *domain.LookupResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled {
		return
	}

	now := m.now()
	m.entries[domain.QueryKey(normalised)] = &domain.SessionRecord{
		NormalisedQuery: normalised,
		Payload:         payload,
		CreatedAt:       now,
		LastAccessedAt:  now,
	}
	logger.Debug("Cached results for %q (cache size: %d)", normalised, len(m.entries))

	if len(m.entries) > m.cfg.MaxEntries {
		m.evictOldest()
	}
}

// evictOldest trims the cache to the retention target, dropping the oldest
// records first. Caller holds the lock.
func (m *SessionMemory) evictOldest() {
	recs := make([]*domain.SessionRecord, 0, len(m.entries))
	for _, rec := range m.entries {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	evicted := 0
	for _, rec := range recs {
		if len(m.entries)-evicted <= m.cfg.RetentionTarget {
			break
		}
		delete(m.entries, domain.QueryKey(rec.NormalisedQuery))
		evicted++
	}
	logger.Debug("Evicted %d oldest cache entries, kept %d", evicted, len(m.entries))
}

// Activate makes a response the target of pagination. The cursor resets to
// page one, which the response itself displays; the first NextPage call
// serves page two.
func (m *SessionMemory) Activate(payload *domain.LookupResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offsets := make(map[domain.DatasetID]int, len(payload.Results))
	for id := range payload.Results {
		offsets[id] = m.pageSize
	}
	m.active = payload
	m.cursor = domain.PaginationCursor{
		NormalisedQuery: payload.NormalisedQuery,
		Page:            1,
		Offsets:         offsets,
	}
}

// NextPage returns the next page of the active query's results. Offsets
// only advance when the page has content, so repeated calls past the end
// keep returning ErrNoMoreResults instead of drifting further.
func (m *SessionMemory) NextPage() (*domain.PageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, domain.ErrNoActiveQuery
	}

	view := &domain.PageView{
		Query:   m.active.Query,
		Page:    m.cursor.Page + 1,
		Results: make(map[domain.DatasetID][]domain.ScoredResult),
		Pages:   make(map[domain.DatasetID]domain.PageInfo),
	}
	next := make(map[domain.DatasetID]int, len(m.cursor.Offsets))

	for _, id := range m.active.DatasetOrder() {
		all := m.active.Results[id]
		view.TotalAvailable += len(all)

		start := m.cursor.Offsets[id]
		next[id] = start
		if start >= len(all) {
			continue
		}
		end := start + m.pageSize
		if end > len(all) {
			end = len(all)
		}

		view.Results[id] = all[start:end]
		view.Pages[id] = domain.PageInfo{Start: start + 1, End: end, Total: len(all)}
		view.TotalShown += end - start
		next[id] = end
		if end < len(all) {
			view.HasMore = true
		}
	}

	if view.TotalShown == 0 {
		logger.Debug("No more results for %q", m.active.Query)
		return nil, domain.ErrNoMoreResults
	}

	m.cursor.Page++
	m.cursor.Offsets = next
	logger.Debug("Serving page %d: %d codes shown (%d total available)",
		view.Page, view.TotalShown, view.TotalAvailable)
	return view, nil
}

// Clear empties the result cache. The pagination cursor survives, so the
// previous answer can still be paged through.
func (m *SessionMemory) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.entries)
	m.entries = make(map[string]*domain.SessionRecord)
	logger.Debug("Cleared query cache (%d entries removed)", removed)
	return removed
}

// Stats reports the memory state.
func (m *SessionMemory) Stats() domain.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := domain.CacheStats{
		Size:    len(m.entries),
		TTL:     m.cfg.TTL,
		Enabled: m.cfg.Enabled,
	}
	if m.active != nil {
		stats.ActiveQuery = m.active.Query
		stats.Page = m.cursor.Page
		stats.PageSize = m.pageSize
	}
	return stats
}
