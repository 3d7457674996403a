// Package testing provides shared fixtures for querystate tests.
package testing

// SealKey returns a valid 32-byte key for sealed codec tests.
func SealKey() []byte {
	return []byte("32-byte-key-for-sealed-carriers!")
}

// SimpleRoute is a fixture with only text fields: no carrier, no callback.
type SimpleRoute struct {
	ID   string `query:"id"`
	Type string `query:"type"`
}

// LegacyRoute is a fixture relying on the default "ed" carrier name.
type LegacyRoute struct {
	ID    string `query:"id"`
	Ed    string `query:"ed"`
	Count int    `query:"count"`
}

// TaggedRoute is a fixture with an explicit payload carrier, a callback-id
// carrier, and composite payload state.
type TaggedRoute struct {
	ID   string   `query:"id"`
	Data string   `query:"d" query.role:"payload"`
	Tags []string `query:"tags"`
	Done string   `query:"cb" query.role:"callback"`
}
