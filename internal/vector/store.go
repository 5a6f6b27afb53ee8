// Package vector provides a small in-memory similarity store used as the
// semantic memory and the manual-chunk index. Documents are embedded as
// L2-normalized term-frequency vectors and ranked by cosine similarity.
// The store is safe for concurrent use; writes and searches from different
// sessions never block each other beyond the map lock.
package vector

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Document is one indexed text fragment with free-form string metadata
// (session id, role, product id, ...).
type Document struct {
	Text      string
	Metadata  map[string]string
	Embedding map[string]float64
	AddedAt   time.Time
}

// Result is a ranked document returned by Search.
type Result struct {
	Text     string
	Metadata map[string]string
	Score    float64
}

// Store is an in-memory vector index. Documents are appended by Add and
// removed only in bulk via RemoveWhere.
type Store struct {
	mu   sync.RWMutex
	docs []Document
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add embeds text and appends it to the index. Metadata is copied so callers
// may reuse their map.
func (s *Store) Add(text string, metadata map[string]string) {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	doc := Document{
		Text:      text,
		Metadata:  meta,
		Embedding: BuildEmbedding(text),
		AddedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
}

// RemoveWhere drops every document whose metadata contains all filter pairs
// and reports how many were removed. An empty filter removes nothing.
func (s *Store) RemoveWhere(filter map[string]string) int {
	if len(filter) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	removed := 0
	for _, d := range s.docs {
		if metadataMatches(d.Metadata, filter) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	return removed
}

// Len reports the number of indexed documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search ranks documents against the query by cosine similarity and returns
// up to topK results scoring at or above threshold. When filter is non-empty,
// only documents whose metadata contains every filter pair are considered.
// Results are ordered by score descending; ties keep insertion order.
func (s *Store) Search(query string, topK int, threshold float64, filter map[string]string) []Result {
	if topK <= 0 {
		topK = 5
	}
	qe := BuildEmbedding(query)
	if len(qe) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	matches := make([]scored, 0, len(s.docs))
	for i := range s.docs {
		if !metadataMatches(s.docs[i].Metadata, filter) {
			continue
		}
		score := cosineSimilarity(qe, s.docs[i].Embedding)
		if score <= 0 || score < threshold {
			continue
		}
		matches = append(matches, scored{idx: i, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > topK {
		matches = matches[:topK]
	}

	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		out = append(out, Result{
			Text:     s.docs[m.idx].Text,
			Metadata: s.docs[m.idx].Metadata,
			Score:    m.score,
		})
	}
	return out
}

func metadataMatches(meta, filter map[string]string) bool {
	for k, want := range filter {
		if meta[k] != want {
			return false
		}
	}
	return true
}

var tokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// BuildEmbedding converts text into an L2-normalized term-frequency vector.
// Single-character tokens are dropped.
func BuildEmbedding(text string) map[string]float64 {
	tokens := tokenRE.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return map[string]float64{}
	}

	freq := make(map[string]float64)
	for _, tok := range tokens {
		if len(tok) < 2 {
			continue
		}
		freq[tok]++
	}

	var norm float64
	for _, count := range freq {
		norm += count * count
	}
	if norm == 0 {
		return freq
	}
	norm = math.Sqrt(norm)
	for k, count := range freq {
		freq[k] = count / norm
	}
	return freq
}

func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for tok, av := range a {
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	return dot
}
