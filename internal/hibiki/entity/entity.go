// Package entity models the typed slot values a classifier attaches to a
// turn (locations, datetimes, task phrases, list items).
//
// A Bag maps an entity kind to the ordered list of values observed for
// that kind.  Kinds are open-ended strings because every NLU backend
// invents its own; the constants below cover the kinds the dispatcher
// itself inspects.
package entity

import "strings"

// Kinds the core flows and handlers read directly.  Classifier backends
// may namespace their built-ins ("wit$location", "wit$datetime:datetime"),
// which the kind-matching helpers fold away.
const (
	KindLocation   = "location"
	KindDatetime   = "datetime"
	KindTask       = "task"
	KindReminder   = "reminder"
	KindItem       = "item"
	KindCountry    = "country"
	KindDish       = "dish"
	KindIngredient = "ingredient"
	KindFood       = "food"
	KindTopic      = "topic"
	KindEvent      = "event"
)

// Value is a single extracted entity occurrence.  Value holds the
// classifier's resolved form, Body the literal span of input it was
// extracted from; either may be empty depending on the backend.
type Value struct {
	Value      string  `json:"value"`
	Body       string  `json:"body,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Text returns the resolved value, falling back to the raw body span.
func (v Value) Text() string {
	if v.Value != "" {
		return v.Value
	}
	return v.Body
}

// Bag is an ordered multi-map of entity kind to observed values.
// The zero value (nil) is an empty bag and safe to read.
type Bag map[string][]Value

// kindMatches reports whether a bag key refers to want, tolerating
// backend namespacing: "wit$datetime:datetime" matches "datetime".
func kindMatches(key, want string) bool {
	return strings.Contains(strings.ToLower(key), want)
}

// Values returns every value whose kind matches want, in arrival order.
func (b Bag) Values(want string) []Value {
	var out []Value
	for key, vals := range b {
		if kindMatches(key, want) {
			out = append(out, vals...)
		}
	}
	return out
}

// First returns the first value whose kind matches want.
func (b Bag) First(want string) (Value, bool) {
	for key, vals := range b {
		if kindMatches(key, want) && len(vals) > 0 {
			return vals[0], true
		}
	}
	return Value{}, false
}

// FirstText is First followed by Text, returning "" on a miss.
func (b Bag) FirstText(want string) string {
	v, ok := b.First(want)
	if !ok {
		return ""
	}
	return v.Text()
}

// Texts returns the non-empty textual forms of every value matching want.
func (b Bag) Texts(want string) []string {
	var out []string
	for _, v := range b.Values(want) {
		if t := v.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LongestText returns the longest textual form among values matching
// want.  Classifiers frequently emit both a clipped and a full span for
// the same slot; the longer one carries the complete phrase.
func (b Bag) LongestText(want string) string {
	var best string
	for _, v := range b.Values(want) {
		if t := v.Text(); len(t) > len(best) {
			best = t
		}
	}
	return best
}

// Merge appends other's values onto b kind by kind, preserving arrival
// order within each kind.  Existing values are never overwritten.
// The receiver is returned so a nil bag can be merged into:
//
//	bag = bag.Merge(more)
func (b Bag) Merge(other Bag) Bag {
	if len(other) == 0 {
		return b
	}
	if b == nil {
		b = make(Bag, len(other))
	}
	for kind, vals := range other {
		b[kind] = append(b[kind], vals...)
	}
	return b
}

// Clone returns a deep copy of the bag.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	for kind, vals := range b {
		cp := make([]Value, len(vals))
		copy(cp, vals)
		out[kind] = cp
	}
	return out
}
