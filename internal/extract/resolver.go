package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/auralabs/go-assistant-backend/internal/domain"
)

// brandKeyword is prepended alongside any resolved product keyword so the
// structured search always sees the catalog brand.
const brandKeyword = "aura"

// historyWindow is how many recent turns Resolve scans for product mentions.
const historyWindow = 5

// contextualMarkers flag queries that refer back to something said earlier.
var contextualMarkers = []string{
	" it", "that", "this", "them", "the product", "more detail", "more info",
}

// aliasEntry maps a colloquial alias to the canonical product keyword.
// Order matters: keywords are accumulated first-seen-first.
type aliasEntry struct {
	alias     string
	canonical string
}

// productAliases is the closed alias table. Matching is case-insensitive,
// whole-word, with an optional trailing "s" (so "headphones" hits
// "headphone" → "harmony").
var productAliases = []aliasEntry{
	// Canonical names map to themselves.
	{"harmony", "harmony"},
	{"pulse", "pulse"},
	{"flow", "flow"},
	{"breeze", "breeze"},
	{"echo", "echo"},
	{"slate", "slate"},

	// Harmony (headphones).
	{"headphone", "harmony"},
	{"headset", "harmony"},
	{"earphone", "harmony"},

	// Pulse (watch).
	{"watch", "pulse"},
	{"smartwatch", "pulse"},
	{"wristband", "pulse"},

	// Flow (phone).
	{"phone", "flow"},
	{"smartphone", "flow"},
	{"mobile", "flow"},

	// Breeze (air purifier).
	{"purifier", "breeze"},
	{"air purifier", "breeze"},
	{"air cleaner", "breeze"},
	{"cleaner", "breeze"},

	// Echo (speaker).
	{"speaker", "echo"},
	{"smart speaker", "echo"},

	// Slate (tablet).
	{"pad", "slate"},
	{"tablet", "slate"},
	{"ipad", "slate"},
}

// aliasPatterns holds one compiled whole-word pattern per alias, built once.
var aliasPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(productAliases))
	for i, e := range productAliases {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(e.alias) + `s?\b`)
	}
	return out
}()

// foldCaser lowercases with full Unicode case folding, not just ASCII.
var foldCaser = cases.Fold()

// IsContextual reports whether a query leans on conversation context
// ("how much is it", "tell me more about that one").
func IsContextual(query string) bool {
	q := foldCaser.String(query)
	for _, marker := range contextualMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// Resolve rewrites an anaphoric query by mining product keywords from the
// most recent turns. It scans up to the last 5 messages (newest first) for
// alias-table hits, accumulates the canonical keywords plus the brand keyword
// in first-seen order with no duplicates, and prepends them to the query.
// When no keyword is found the query is returned unchanged.
func Resolve(query string, history []domain.ChatMessage) string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, 4)
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	scanned := 0
	for i := len(history) - 1; i >= 0 && scanned < historyWindow; i-- {
		scanned++
		msg := foldCaser.String(history[i].Content)

		if strings.Contains(msg, brandKeyword) {
			add(brandKeyword)
		}
		for j, e := range productAliases {
			if aliasPatterns[j].MatchString(msg) {
				add(e.canonical)
				add(brandKeyword)
			}
		}
	}

	if len(keywords) == 0 {
		return query
	}
	return strings.Join(keywords, " ") + " " + query
}
