// Package extract pulls structure out of free-form chat text: typed entity
// references (order numbers, product codes, emails, phone numbers) and
// anaphoric product references ("it", "that one") that need rewriting before
// retrieval. Everything here is deterministic pattern matching, with no model
// calls and no I/O.
package extract

import "regexp"

// Entity kinds reported by Entities.
const (
	KindOrderNumbers = "orderNumbers"
	KindProductIDs   = "productIds"
	KindEmails       = "emails"
	KindPhoneNumbers = "phoneNumbers"
)

// Entities maps an entity kind to the ordered matches found in one message.
// Kinds with no matches are omitted entirely, not present with empty lists.
type Entities map[string][]string

var (
	// Order numbers: ORD- + 14-digit timestamp + - + 4-digit suffix.
	orderNumberRE = regexp.MustCompile(`ORD-\d{14}-\d{4}`)
	// Short product codes like P-1024.
	productIDRE = regexp.MustCompile(`\bP-\d{4}\b`)
	emailRE     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// 10–14 digit runs with an optional leading +, bounded so order numbers
	// and product codes don't bleed into phone matches.
	phoneRE = regexp.MustCompile(`(^|[^\d-])(\+?\d{10,14})($|[^\d-])`)
)

// ExtractEntities scans text for every known entity kind. It is a pure
// function: it never fails, and absence of a kind means the key is omitted.
func ExtractEntities(text string) Entities {
	out := Entities{}
	if m := orderNumberRE.FindAllString(text, -1); len(m) > 0 {
		out[KindOrderNumbers] = m
	}
	if m := productIDRE.FindAllString(text, -1); len(m) > 0 {
		out[KindProductIDs] = m
	}
	if m := emailRE.FindAllString(text, -1); len(m) > 0 {
		out[KindEmails] = m
	}
	if m := findPhoneNumbers(text); len(m) > 0 {
		out[KindPhoneNumbers] = m
	}
	return out
}

// findPhoneNumbers scans for phone matches one at a time, resuming right
// after each number's digits. The trailing boundary character is part of the
// match, so a plain FindAll would swallow the separator and miss a number
// that immediately follows it.
func findPhoneNumbers(text string) []string {
	var out []string
	for rest := text; ; {
		loc := phoneRE.FindStringSubmatchIndex(rest)
		if loc == nil {
			return out
		}
		out = append(out, rest[loc[4]:loc[5]])
		rest = rest[loc[5]:]
	}
}
