// Package uid provides small ID generator abstractions.
//
// StringID is used where opaque identifiers are fine (correlation IDs, token
// IDs); NumberID is used for database primary keys that must stay sortable.
package uid

// StringID generates opaque string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}
