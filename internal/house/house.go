// Package house defines the four event houses and the assignment policy.
package house

import "strings"

// House is one of the four fixed groups every attendee belongs to.
type House string

const (
	Love  House = "Love"
	Joy   House = "Joy"
	Hope  House = "Hope"
	Peace House = "Peace"
)

// All returns every house in assignment priority order.
func All() []House {
	return []House{Love, Joy, Hope, Peace}
}

// Parse resolves a house label case-insensitively.
func Parse(value string) (House, bool) {
	value = strings.TrimSpace(value)
	for _, h := range All() {
		if strings.EqualFold(value, string(h)) {
			return h, true
		}
	}
	return "", false
}

// Valid reports whether h is one of the four houses.
func (h House) Valid() bool {
	switch h {
	case Love, Joy, Hope, Peace:
		return true
	}
	return false
}

// Initial returns the single-letter prefix used in ticket numbers.
func (h House) Initial() string {
	if h == "" {
		return ""
	}
	return string(h[0])
}

// Assign picks the house for the next registrant.
//
// The policy is round-robin by count: the house with the fewest current
// members wins, ties broken by the fixed priority order Love, Joy, Hope,
// Peace. It is a pure function of the counts so two callers observing the
// same distribution always agree.
func Assign(counts map[House]int) House {
	assigned := Love
	best := -1
	for _, h := range All() {
		count := counts[h]
		if best == -1 || count < best {
			assigned = h
			best = count
		}
	}
	return assigned
}
