package keyed

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// OrderedMap is an insertion-ordered associative array over keys of any
// kind. It keeps a dense entry sequence plus a signature→index side table,
// so lookups are O(1) while enumeration replays entries in the order their
// keys first appeared. Re-storing an existing key overwrites its value in
// place and does not move it.
//
// The zero OrderedMap is empty and ready to use. An OrderedMap is also an
// ordered aggregate: it can itself be used as a key of another container,
// in which case it must not be mutated while it is one.
//
// Not safe for concurrent use.
type OrderedMap struct {
	entries []*Entry
	index   map[Signature]int
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// NewOrderedMapOf creates an OrderedMap from the given pairs, stored in
// order. Pairs with unhashable keys are skipped and their errors aggregated.
func NewOrderedMapOf(pairs ...Entry) (*OrderedMap, error) {
	m := NewOrderedMap()
	return m, m.StoreAll(pairs...)
}

// Store inserts key with the given value, or overwrites the value in place
// if the key is already present. The key's enumeration position never
// changes on overwrite.
func (m *OrderedMap) Store(key, value any) error {
	sig, err := SignatureOf(key)
	if err != nil {
		return err
	}
	m.storeSig(sig, key, value)
	return nil
}

// StoreAll stores every pair in order, aggregating the canonicalization
// errors of any unhashable keys. Pairs with hashable keys are stored even
// when earlier pairs fail.
func (m *OrderedMap) StoreAll(pairs ...Entry) error {
	var err error
	for _, p := range pairs {
		err = multierr.Append(err, m.Store(p.Key, p.Value))
	}
	return err
}

func (m *OrderedMap) storeSig(sig Signature, key, value any) {
	if i, ok := m.index[sig]; ok {
		m.entries[i].Value = value
		return
	}
	if m.index == nil {
		m.index = make(map[Signature]int)
	}
	m.index[sig] = len(m.entries)
	m.entries = append(m.entries, &Entry{Key: key, Value: value, sig: sig})
}

// Load returns the value stored for key. The ok result reports whether the
// key was present; absence is not an error.
func (m *OrderedMap) Load(key any) (value any, ok bool, err error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return nil, false, err
	}
	if i, found := m.index[sig]; found {
		return m.entries[i].Value, true, nil
	}
	return nil, false, nil
}

// Has reports whether key is present.
func (m *OrderedMap) Has(key any) (bool, error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return false, err
	}
	_, ok := m.index[sig]
	return ok, nil
}

// Delete removes key and reports whether an entry was removed. Later entries
// shift down one position and the side table is rebuilt for them, so a
// delete costs O(n); enumeration order of the survivors is unchanged.
func (m *OrderedMap) Delete(key any) (bool, error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return false, err
	}
	i, ok := m.index[sig]
	if !ok {
		return false, nil
	}
	delete(m.index, sig)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].sig] = j
	}
	return true, nil
}

// Clear removes all entries.
func (m *OrderedMap) Clear() {
	m.entries = nil
	m.index = nil
}

// Size returns the number of entries.
func (m *OrderedMap) Size() int {
	return len(m.entries)
}

// IsZero checks for emptiness, equivalent to Size() == 0.
func (m *OrderedMap) IsZero() bool {
	return len(m.entries) == 0
}

// RangeEntry iterates over the entries in insertion order.
//
// Never modify an entry's Key; overwriting Value is allowed.
func (m *OrderedMap) RangeEntry(yield func(e *Entry) bool) {
	for _, e := range m.entries {
		if !yield(e) {
			return
		}
	}
}

// Range iterates over key-value pairs in insertion order.
func (m *OrderedMap) Range(yield func(key, value any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Key, e.Value)
	})
}

// RangeKeys iterates over all keys in insertion order.
func (m *OrderedMap) RangeKeys(yield func(key any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Key)
	})
}

// RangeValues iterates over all values in insertion order.
func (m *OrderedMap) RangeValues(yield func(value any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Value)
	})
}

// All is the iterator version of Range, usable with range-over-func.
func (m *OrderedMap) All() func(yield func(any, any) bool) {
	return m.Range
}

// Keys is the iterator version for iterating over all keys.
func (m *OrderedMap) Keys() func(yield func(any) bool) {
	return m.RangeKeys
}

// Values is the iterator version for iterating over all values.
func (m *OrderedMap) Values() func(yield func(any) bool) {
	return m.RangeValues
}

// Entries returns a copy of the entry list in insertion order.
func (m *OrderedMap) Entries() []Entry {
	a := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		a[i] = *e
	}
	return a
}

// Clone returns a shallow copy: keys and values are shared, structure is not.
func (m *OrderedMap) Clone() *OrderedMap {
	c := NewOrderedMap()
	for _, e := range m.entries {
		c.storeSig(e.sig, e.Key, e.Value)
	}
	return c
}

// String implements fmt.Stringer.
func (m *OrderedMap) String() string {
	var sb strings.Builder
	sb.WriteString("OrderedMap[")
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v:%v", e.Key, e.Value)
	}
	sb.WriteByte(']')
	return sb.String()
}

func (m *OrderedMap) hasSig(sig Signature) bool {
	_, ok := m.index[sig]
	return ok
}

// entryList exposes the live entry sequence to the signature and
// serialization layers. Nil-safe so a nil *OrderedMap signs as empty.
func (m *OrderedMap) entryList() []*Entry {
	if m == nil {
		return nil
	}
	return m.entries
}
