package vector

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestBuildEmbedding_NormalizedAndFiltered(t *testing.T) {
	e := BuildEmbedding("Battery battery a life")
	if _, ok := e["a"]; ok {
		t.Fatalf("single-character tokens must be dropped")
	}
	if len(e) != 2 {
		t.Fatalf("expected 2 terms, got %d: %#v", len(e), e)
	}

	var norm float64
	for _, v := range e {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("embedding not L2-normalized: %v", norm)
	}
	if e["battery"] <= e["life"] {
		t.Fatalf("repeated term should weigh more: %#v", e)
	}
}

func TestSearch_RankingAndThreshold(t *testing.T) {
	s := NewStore()
	s.Add("battery life and charging time", nil)
	s.Add("bluetooth pairing instructions", nil)
	s.Add("battery replacement guide battery", nil)

	results := s.Search("battery", 10, 0.1, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 battery hits, got %d", len(results))
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not ordered by score: %v then %v", results[0].Score, results[1].Score)
	}

	if got := s.Search("battery", 10, 0.99, nil); len(got) != 0 {
		t.Fatalf("high threshold should filter everything, got %d", len(got))
	}
	if got := s.Search("", 10, 0, nil); got != nil {
		t.Fatalf("empty query should return nil, got %#v", got)
	}
}

func TestSearch_TopKAndFilter(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Add("warranty terms and conditions", map[string]string{"productId": fmt.Sprintf("P-%d", i)})
	}

	if got := s.Search("warranty", 3, 0, nil); len(got) != 3 {
		t.Fatalf("topK cap failed: got %d", len(got))
	}

	got := s.Search("warranty", 10, 0, map[string]string{"productId": "P-2"})
	if len(got) != 1 || got[0].Metadata["productId"] != "P-2" {
		t.Fatalf("filter failed: %#v", got)
	}

	if got := s.Search("warranty", 10, 0, map[string]string{"productId": "P-99"}); len(got) != 0 {
		t.Fatalf("non-matching filter should return nothing")
	}
}

func TestAdd_CopiesMetadata(t *testing.T) {
	s := NewStore()
	meta := map[string]string{"sessionId": "s1"}
	s.Add("hello world", meta)
	meta["sessionId"] = "mutated"

	got := s.Search("hello", 1, 0, map[string]string{"sessionId": "s1"})
	if len(got) != 1 {
		t.Fatalf("stored metadata must be a copy, search found %d", len(got))
	}
}

func TestRemoveWhere(t *testing.T) {
	s := NewStore()
	s.Add("pairing guide", map[string]string{"productId": "P-1"})
	s.Add("battery care", map[string]string{"productId": "P-1"})
	s.Add("cleaning tips", map[string]string{"productId": "P-2"})

	if got := s.RemoveWhere(nil); got != 0 || s.Len() != 3 {
		t.Fatalf("empty filter must remove nothing: removed %d, len %d", got, s.Len())
	}

	if got := s.RemoveWhere(map[string]string{"productId": "P-1"}); got != 2 {
		t.Fatalf("removed = %d, want 2", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if hits := s.Search("pairing guide", 5, 0, nil); len(hits) != 0 {
		t.Fatalf("removed documents still searchable: %#v", hits)
	}
	if hits := s.Search("cleaning tips", 5, 0, nil); len(hits) != 1 {
		t.Fatalf("unrelated document lost: %#v", hits)
	}
}

func TestStore_ConcurrentAddAndSearch(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Add(fmt.Sprintf("document number %d about batteries", i), nil)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Search("batteries", 5, 0, nil)
		}()
	}
	wg.Wait()
	if s.Len() != 20 {
		t.Fatalf("expected 20 docs, got %d", s.Len())
	}
}
