package headers

import (
	"iter"
	"slices"

	"github.com/indigo-web/utils/strcomp"
)

// Entry is a single header field. A field may hold either a single value or an ordered list
// of values, the latter being rendered comma-joined.
type Entry struct {
	Key    string
	Values []string
}

// Headers is an ordered associative structure for header fields. Keys are unique
// case-insensitively: the spelling seen first is the one kept. Insertion order is preserved
// and updating an existing key never moves it. Like the rest of the key-value structures
// here, it uses linear search, which is cheaper than a map on the usual amount of entries.
type Headers struct {
	entries []Entry
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance with pre-allocated space for n fields.
func NewPrealloc(n int) *Headers {
	return &Headers{
		entries: make([]Entry, 0, n),
	}
}

// NewFromPairs builds headers out of key-value pairs, i.e. ("Host", "example.com", ...).
// Repeating keys are accumulated into lists. Odd trailing key is ignored.
func NewFromPairs(pairs ...string) *Headers {
	h := NewPrealloc(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}

	return h
}

// Add appends the value to the key's list, creating the entry if it isn't present yet.
func (h *Headers) Add(key, value string) *Headers {
	if i := h.index(key); i != -1 {
		h.entries[i].Values = append(h.entries[i].Values, value)
		return h
	}

	h.entries = append(h.entries, Entry{
		Key:    key,
		Values: []string{value},
	})

	return h
}

// Set overwrites values of the key, keeping its position. Unseen keys are appended.
func (h *Headers) Set(key string, values ...string) *Headers {
	values = slices.Clone(values)

	if i := h.index(key); i != -1 {
		h.entries[i].Values = values
		return h
	}

	h.entries = append(h.entries, Entry{
		Key:    key,
		Values: values,
	})

	return h
}

// Merge sets every entry of other in its order. Existing keys are overwritten in place, while
// new ones are appended.
func (h *Headers) Merge(other *Headers) *Headers {
	for _, entry := range other.entries {
		h.Set(entry.Key, entry.Values...)
	}

	return h
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned.
func (h *Headers) Value(key string) string {
	value, _ := h.Get(key)
	return value
}

// Get returns the first value of the key and a bool, indicating whether the key exists.
func (h *Headers) Get(key string) (string, bool) {
	i := h.index(key)
	if i == -1 || len(h.entries[i].Values) == 0 {
		return "", i != -1
	}

	return h.entries[i].Values[0], true
}

// Values returns all values by the key. Returns nil if key doesn't exist. The returned slice
// must not be modified.
func (h *Headers) Values(key string) []string {
	if i := h.index(key); i != -1 {
		return h.entries[i].Values
	}

	return nil
}

// Has indicates, whether there's an entry of the key.
func (h *Headers) Has(key string) bool {
	return h.index(key) != -1
}

// Delete removes the entry, preserving the order of the rest. Returns whether anything
// was deleted.
func (h *Headers) Delete(key string) bool {
	i := h.index(key)
	if i == -1 {
		return false
	}

	h.entries = slices.Delete(h.entries, i, i+1)
	return true
}

// Iter iterates over the entries in their order.
func (h *Headers) Iter() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, entry := range h.entries {
			if !yield(entry.Key, entry.Values) {
				break
			}
		}
	}
}

// Keys returns keys in their order.
func (h *Headers) Keys() []string {
	keys := make([]string, len(h.entries))
	for i, entry := range h.entries {
		keys[i] = entry.Key
	}

	return keys
}

// Len returns a number of unique keys.
func (h *Headers) Len() int {
	return len(h.entries)
}

func (h *Headers) Empty() bool {
	return h.Len() == 0
}

// Clone creates a deep copy.
func (h *Headers) Clone() *Headers {
	entries := make([]Entry, len(h.entries))
	for i, entry := range h.entries {
		entries[i] = Entry{
			Key:    entry.Key,
			Values: slices.Clone(entry.Values),
		}
	}

	return &Headers{entries: entries}
}

// Clear all the entries. However, all the allocated space won't be freed.
func (h *Headers) Clear() *Headers {
	h.entries = h.entries[:0]
	return h
}

func (h *Headers) index(key string) int {
	for i, entry := range h.entries {
		if strcomp.EqualFold(entry.Key, key) {
			return i
		}
	}

	return -1
}
