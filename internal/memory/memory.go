// Package memory implements the three-tier conversation memory: a durable
// ordered log (SQLite via GORM, the source of truth), a per-session bounded
// in-process cache for fast recent-history reads, and a best-effort semantic
// index over message text.
//
// Consistency notes:
//   - Save holds the session lock across both the durable-log insert and the
//     cache append, so same-session saves reach the log and the cache in one
//     order. The cache is therefore always a suffix of the log.
//   - The semantic index is strictly best-effort: an indexing failure is
//     logged and swallowed, never surfaced to the caller.
//   - RecentHistory serves from the cache only when it already holds at
//     least `limit` entries; otherwise it reads exactly the `limit` most
//     recent rows from the log. Because the cache is a suffix of the log,
//     both paths return the same view.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/auralabs/go-assistant-backend/internal/domain"
	"github.com/auralabs/go-assistant-backend/internal/repo"
	"github.com/auralabs/go-assistant-backend/internal/vector"
)

// DefaultCacheSize bounds the per-session recent-turn cache.
const DefaultCacheSize = 50

// Memory coordinates the three storage tiers. The zero value is not usable;
// construct with New.
type Memory struct {
	db        *gorm.DB
	semantic  *vector.Store
	cacheSize int

	mu       sync.RWMutex
	sessions map[string]*sessionCache
}

// sessionCache holds one session's recent turns. Its mutex serializes a
// save's log insert and cache append against concurrent saves and readers of
// the same session; distinct sessions never contend on it.
type sessionCache struct {
	mu   sync.Mutex
	msgs []domain.ChatMessage
}

// New constructs a Memory over the given durable store and semantic index.
// A cacheSize <= 0 falls back to DefaultCacheSize.
func New(db *gorm.DB, semantic *vector.Store, cacheSize int) *Memory {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Memory{
		db:        db,
		semantic:  semantic,
		cacheSize: cacheSize,
		sessions:  make(map[string]*sessionCache),
	}
}

// session returns the cache entry for sessionID, creating it on first write.
func (m *Memory) session(sessionID string) *sessionCache {
	m.mu.RLock()
	sc, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return sc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sc, ok = m.sessions[sessionID]; ok {
		return sc
	}
	sc = &sessionCache{}
	m.sessions[sessionID] = sc
	return sc
}

// Save appends a message to the durable log and the session cache (trimmed
// to the configured size) under the session lock, then indexes the text into
// the semantic store. Only a durable-log failure fails the save.
func (m *Memory) Save(ctx context.Context, sessionID, role, text string, contextMap map[string]any) (*domain.ChatMessage, error) {
	var contextJSON string
	if len(contextMap) > 0 {
		if b, err := json.Marshal(contextMap); err == nil {
			contextJSON = string(b)
		} else {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("context map not serializable, dropping")
		}
	}

	// The lock spans the insert so the cache append order matches the log
	// commit order; releasing it between the two lets concurrent saves
	// interleave and break the suffix guarantee.
	sc := m.session(sessionID)
	sc.mu.Lock()
	msg, err := repo.CreateChatMessage(ctx, m.db, sessionID, role, text, contextJSON)
	if err != nil {
		sc.mu.Unlock()
		return nil, err
	}
	sc.msgs = append(sc.msgs, *msg)
	if n := len(sc.msgs); n > m.cacheSize {
		trimmed := make([]domain.ChatMessage, m.cacheSize)
		copy(trimmed, sc.msgs[n-m.cacheSize:])
		sc.msgs = trimmed
	}
	sc.mu.Unlock()

	if m.semantic != nil {
		m.semantic.Add(text, map[string]string{
			"sessionId": sessionID,
			"role":      role,
			"timestamp": msg.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}

	return msg, nil
}

// RecentHistory returns up to limit messages for the session in ascending
// creation order. The cache is used only when it already holds enough
// entries; otherwise the durable log is queried.
func (m *Memory) RecentHistory(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}

	m.mu.RLock()
	sc, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		sc.mu.Lock()
		if len(sc.msgs) >= limit {
			out := make([]domain.ChatMessage, limit)
			copy(out, sc.msgs[len(sc.msgs)-limit:])
			sc.mu.Unlock()
			return out, nil
		}
		sc.mu.Unlock()
	}

	return repo.ListRecentMessages(ctx, m.db, sessionID, limit)
}

// SearchSemantic queries the semantic index, optionally scoped to one
// session, and returns matching text snippets best-first. It degrades to an
// empty slice on any failure; semantic recall is never load-bearing.
func (m *Memory) SearchSemantic(query, sessionID string, topK int, threshold float64) []string {
	if m.semantic == nil {
		return nil
	}
	var filter map[string]string
	if sessionID != "" {
		filter = map[string]string{"sessionId": sessionID}
	}
	results := m.semantic.Search(query, topK, threshold, filter)
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Text)
	}
	return out
}

// Clear drops the session's cache entry and deletes its durable-log rows.
// Semantic-store entries are intentionally left in place; the store has no
// per-session deletion guarantee.
func (m *Memory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	deleted, err := repo.DeleteSessionMessages(ctx, m.db, sessionID)
	if err != nil {
		return err
	}
	log.Info().Str("session_id", sessionID).Int64("deleted", deleted).Msg("session memory cleared")
	return nil
}

// CachedLen reports how many messages the in-process cache currently holds
// for a session. Intended for tests and diagnostics.
func (m *Memory) CachedLen(sessionID string) int {
	m.mu.RLock()
	sc, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.msgs)
}
