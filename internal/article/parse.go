package article

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a publication date string matches no known layout.
var ErrInvalidDate = errors.New("unrecognized date format")

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01",
	"2006",
}

// ParseConceptIDs parses a raw comma-separated concept string.
//
// Tokens are trimmed and empty tokens skipped. A token is valid when it starts
// with "C" and the remainder is an integer. Valid IDs are returned in order of
// appearance (duplicates kept); invalid tokens are returned separately so the
// caller can report them.
func ParseConceptIDs(raw string) (ids []int64, invalid []string) {
	ids = []int64{}
	for _, token := range splitTokens(raw) {
		id, err := parsePrefixed(token, ConceptPrefix)
		if err != nil {
			invalid = append(invalid, token)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

// ParseReferences parses a raw comma-separated reference string.
//
// Tokens already in canonical "W<integer>" form are kept verbatim; anything
// else is returned in invalid.
func ParseReferences(raw string) (refs []string, invalid []string) {
	refs = []string{}
	for _, token := range splitTokens(raw) {
		if _, err := parsePrefixed(token, ArticlePrefix); err != nil {
			invalid = append(invalid, token)
			continue
		}
		refs = append(refs, token)
	}
	return refs, invalid
}

// ParseDate parses a publication date. An empty string is a missing date and
// returns (nil, nil).
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
