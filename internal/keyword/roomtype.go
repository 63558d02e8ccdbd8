package keyword

import (
	"sort"
	"strings"
)

// RoomTypeMatcher detects which known room type a query refers to.
// It is built once per row set from the distinct room_type values present.
type RoomTypeMatcher struct {
	types []roomType
}

type roomType struct {
	name       string
	normalized string
	tokens     []string
}

// NewRoomTypeMatcher precomputes normalized names for the given room types.
// Blank and duplicate (after normalization) names are ignored; the first spelling wins.
func NewRoomTypeMatcher(names []string) *RoomTypeMatcher {
	seen := make(map[string]bool)
	m := &RoomTypeMatcher{}
	for _, name := range names {
		norm := Normalize(name)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		m.types = append(m.types, roomType{
			name:       strings.TrimSpace(name),
			normalized: norm,
			tokens:     Tokenize(name),
		})
	}
	sort.SliceStable(m.types, func(i, j int) bool { return m.types[i].normalized < m.types[j].normalized })
	return m
}

// Len returns the number of distinct room types known to the matcher.
func (m *RoomTypeMatcher) Len() int {
	return len(m.types)
}

// Detect returns the room type named by query, or "" when none matches.
// A room type matches when all of its tokens appear in the query (a phrase substring
// match is a special case of this). The most specific match wins: more tokens first,
// then the longer normalized name.
func (m *RoomTypeMatcher) Detect(query string) string {
	if m == nil || len(m.types) == 0 {
		return ""
	}
	queryTokens := TokenSet(query)
	var best *roomType
	for i := range m.types {
		rt := &m.types[i]
		if !containsAll(queryTokens, rt.tokens) {
			continue
		}
		if best == nil || moreSpecific(rt, best) {
			best = rt
		}
	}
	if best == nil {
		return ""
	}
	return best.name
}

func moreSpecific(a, b *roomType) bool {
	if len(a.tokens) != len(b.tokens) {
		return len(a.tokens) > len(b.tokens)
	}
	return len(a.normalized) > len(b.normalized)
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
