package keyed

import (
	"fmt"
	"hash/crc32"
	"strings"
	"unsafe"

	"go.uber.org/multierr"
)

// entriesPerBucket is the number of entry slots per bucket. Calculated so
// that a bucket (slots plus overflow link) fills a single cache line, capped
// at 8.
const entriesPerBucket = min(8, (int(CacheLineSize)-int(unsafe.Sizeof(unsafe.Pointer(nil))))/int(unsafe.Sizeof(unsafe.Pointer(nil))))

// bucket holds one cache line of entry slots plus an overflow link. A chain
// is the slot sequence of a root bucket followed by its overflow buckets.
type bucket struct {
	entries [entriesPerBucket]*Entry
	next    *bucket
}

// HashMap is a chained hash table over keys of any kind.
//
// Keys are placed by a checksum of their canonical signature modulo the
// bucket-array length; keys that collide share a chain and are told apart by
// exact equality, never by signature alone. When an insert would push the
// load factor (size divided by bucket-array length) past loadFactor, the
// table grows to double capacity with a full synchronous rehash first. The
// table never shrinks.
//
// Traversal order is bucket index then chain order, which is unrelated to
// insertion order. Use OrderedMap when enumeration order matters.
//
// The zero HashMap is empty and ready to use.
// Not safe for concurrent use.
type HashMap struct {
	buckets []bucket
	size    int
	minCap  int
}

// NewHashMap creates a new HashMap. Direct initialization is also supported.
//
// Parameters:
//   - WithCapacity option for the initial bucket-array length
//   - WithPresize option for expected entry count
func NewHashMap(options ...func(*MapConfig)) *HashMap {
	var cfg MapConfig
	for _, opt := range options {
		opt(&cfg)
	}
	m := &HashMap{minCap: defaultTableCap}
	if cfg.capacity > 0 {
		m.minCap = cfg.capacity
	}
	if cfg.sizeHint > 0 {
		for float64(cfg.sizeHint)/float64(m.minCap) > loadFactor {
			m.minCap *= 2
		}
	}
	return m
}

// MapConfig defines configurable HashMap options.
type MapConfig struct {
	capacity int
	sizeHint int
}

// WithCapacity sets the initial bucket-array length. Zero or negative values
// are ignored and the default of 17 buckets applies.
func WithCapacity(capacity int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.capacity = capacity
	}
}

// WithPresize configures the table with capacity enough to hold sizeHint
// entries without growing. If sizeHint is zero or negative, the value is
// ignored.
func WithPresize(sizeHint int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.sizeHint = sizeHint
	}
}

// bucketIndex reduces a signature to a bucket position with a fast integer
// hash of the signature bytes.
func bucketIndex(sig Signature, capacity int) int {
	return int(crc32.ChecksumIEEE([]byte(sig)) % uint32(capacity))
}

func (m *HashMap) init() {
	if m.buckets == nil {
		if m.minCap <= 0 {
			m.minCap = defaultTableCap
		}
		m.buckets = make([]bucket, m.minCap)
	}
}

// Store inserts key with the given value, or overwrites the value of the
// entry whose key is exactly equal to it. On canonicalization failure the
// table is left unchanged.
func (m *HashMap) Store(key, value any) error {
	sig, err := SignatureOf(key)
	if err != nil {
		return err
	}
	m.init()
	if float64(m.size+1)/float64(len(m.buckets)) > loadFactor {
		m.grow(len(m.buckets) * 2)
	}

	root := &m.buckets[bucketIndex(sig, len(m.buckets))]
	var free **Entry
	last := root
	for b := root; b != nil; b = b.next {
		for i := range b.entries {
			e := b.entries[i]
			if e == nil {
				if free == nil {
					free = &b.entries[i]
				}
				continue
			}
			if e.sig == sig && exactEqual(e.Key, key) {
				e.Value = value
				return nil
			}
		}
		last = b
	}

	ne := &Entry{Key: key, Value: value, sig: sig}
	if free != nil {
		*free = ne
	} else {
		ob := &bucket{}
		ob.entries[0] = ne
		last.next = ob
	}
	m.size++
	return nil
}

// StoreAll stores every pair, aggregating the canonicalization errors of any
// unhashable keys.
func (m *HashMap) StoreAll(pairs ...Entry) error {
	var err error
	for _, p := range pairs {
		err = multierr.Append(err, m.Store(p.Key, p.Value))
	}
	return err
}

// grow rehashes every entry into a fresh bucket array of the given capacity
// and only then swaps it in. Signatures are cached on entries, so rehashing
// cannot fail mid-way and the table is never observable in a half-moved
// state.
func (m *HashMap) grow(capacity int) {
	fresh := make([]bucket, capacity)
	m.RangeEntry(func(e *Entry) bool {
		placeEntry(fresh, e)
		return true
	})
	m.buckets = fresh
}

// placeEntry appends e to its chain in buckets. Only used while rehashing,
// where every entry's key is already known to be unique.
func placeEntry(buckets []bucket, e *Entry) {
	b := &buckets[bucketIndex(e.sig, len(buckets))]
	for {
		for i := range b.entries {
			if b.entries[i] == nil {
				b.entries[i] = e
				return
			}
		}
		if b.next == nil {
			b.next = &bucket{}
		}
		b = b.next
	}
}

func (m *HashMap) findEntry(sig Signature, key any) *Entry {
	if m.buckets == nil {
		return nil
	}
	root := &m.buckets[bucketIndex(sig, len(m.buckets))]
	for b := root; b != nil; b = b.next {
		for i := range b.entries {
			if e := b.entries[i]; e != nil && e.sig == sig && exactEqual(e.Key, key) {
				return e
			}
		}
	}
	return nil
}

// Load returns the value stored for key. The ok result reports whether the
// key was present; absence is not an error.
func (m *HashMap) Load(key any) (value any, ok bool, err error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return nil, false, err
	}
	if e := m.findEntry(sig, key); e != nil {
		return e.Value, true, nil
	}
	return nil, false, nil
}

// Has reports whether key is present.
func (m *HashMap) Has(key any) (bool, error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return false, err
	}
	return m.findEntry(sig, key) != nil, nil
}

// Delete removes the entry whose key is exactly equal to key and reports
// whether an entry was removed. The freed slot is reused by later stores;
// the bucket array itself never shrinks.
func (m *HashMap) Delete(key any) (bool, error) {
	sig, err := SignatureOf(key)
	if err != nil {
		return false, err
	}
	if m.buckets == nil {
		return false, nil
	}
	root := &m.buckets[bucketIndex(sig, len(m.buckets))]
	for b := root; b != nil; b = b.next {
		for i := range b.entries {
			if e := b.entries[i]; e != nil && e.sig == sig && exactEqual(e.Key, key) {
				b.entries[i] = nil
				m.size--
				return true, nil
			}
		}
	}
	return false, nil
}

// Clear removes all entries and releases the bucket array.
func (m *HashMap) Clear() {
	m.buckets = nil
	m.size = 0
}

// Size returns the number of key-value pairs in the map.
// This is an O(1) operation.
func (m *HashMap) Size() int {
	return m.size
}

// IsZero checks for emptiness, equivalent to Size() == 0.
func (m *HashMap) IsZero() bool {
	return m.size == 0
}

// RangeEntry iterates over all entries in bucket order then chain order.
//
// Never modify an entry's Key; overwriting Value is allowed. The table must
// not be mutated during iteration.
func (m *HashMap) RangeEntry(yield func(e *Entry) bool) {
	for i := range m.buckets {
		for b := &m.buckets[i]; b != nil; b = b.next {
			for j := range b.entries {
				if e := b.entries[j]; e != nil {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

// Range iterates over key-value pairs in bucket order.
func (m *HashMap) Range(yield func(key, value any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Key, e.Value)
	})
}

// RangeKeys iterates over all keys.
func (m *HashMap) RangeKeys(yield func(key any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Key)
	})
}

// RangeValues iterates over all values.
func (m *HashMap) RangeValues(yield func(value any) bool) {
	m.RangeEntry(func(e *Entry) bool {
		return yield(e.Value)
	})
}

// All is the iterator version of Range, usable with range-over-func.
func (m *HashMap) All() func(yield func(any, any) bool) {
	return m.Range
}

// Keys is the iterator version for iterating over all keys.
func (m *HashMap) Keys() func(yield func(any) bool) {
	return m.RangeKeys
}

// Values is the iterator version for iterating over all values.
func (m *HashMap) Values() func(yield func(any) bool) {
	return m.RangeValues
}

// Entries returns a copy of all entries in traversal order.
func (m *HashMap) Entries() []Entry {
	a := make([]Entry, 0, m.size)
	m.RangeEntry(func(e *Entry) bool {
		a = append(a, *e)
		return true
	})
	return a
}

// ToOrderedMap collects all entries into an OrderedMap in traversal order.
func (m *HashMap) ToOrderedMap() *OrderedMap {
	om := NewOrderedMap()
	m.RangeEntry(func(e *Entry) bool {
		om.storeSig(e.sig, e.Key, e.Value)
		return true
	})
	return om
}

// Clone returns a shallow copy: keys and values are shared, the bucket
// structure is not.
func (m *HashMap) Clone() *HashMap {
	capacity := m.minCap
	if capacity <= 0 {
		capacity = defaultTableCap
	}
	c := NewHashMap(WithCapacity(capacity), WithPresize(m.size))
	c.init()
	m.RangeEntry(func(e *Entry) bool {
		placeEntry(c.buckets, &Entry{Key: e.Key, Value: e.Value, sig: e.sig})
		return true
	})
	c.size = m.size
	return c
}

// String implements fmt.Stringer.
func (m *HashMap) String() string {
	var sb strings.Builder
	sb.WriteString("HashMap[")
	first := true
	m.RangeEntry(func(e *Entry) bool {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%v:%v", e.Key, e.Value)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
