package keyed

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Set is a unique-element collection over values of any kind. Two elements
// are the same member exactly when their signatures match, so a Set may mix
// scalars, aggregates and reference-typed instances. Elements enumerate in
// insertion order.
//
// The zero Set is empty and ready to use.
// Not safe for concurrent use.
type Set struct {
	m OrderedMap
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// NewSetOf creates a Set of the given elements, added in order. Unhashable
// elements are skipped and their errors aggregated.
func NewSetOf(elems ...any) (*Set, error) {
	s := NewSet()
	return s, s.AddAll(elems...)
}

// Add inserts elem. Adding an element whose signature is already present
// replaces the stored representative without changing the set's size or the
// member's enumeration position.
func (s *Set) Add(elem any) error {
	// The element doubles as the entry value so a duplicate add can swap
	// the representative in place.
	return s.m.Store(elem, elem)
}

// AddAll adds every element in order, aggregating the canonicalization
// errors of any unhashable elements.
func (s *Set) AddAll(elems ...any) error {
	var err error
	for _, e := range elems {
		err = multierr.Append(err, s.Add(e))
	}
	return err
}

// Has reports whether elem is a member.
func (s *Set) Has(elem any) (bool, error) {
	return s.m.Has(elem)
}

// Delete removes elem and reports whether a member was removed.
func (s *Set) Delete(elem any) (bool, error) {
	return s.m.Delete(elem)
}

// Clear removes all members.
func (s *Set) Clear() {
	s.m.Clear()
}

// Size returns the number of members.
func (s *Set) Size() int {
	return s.m.Size()
}

// IsZero checks for emptiness, equivalent to Size() == 0.
func (s *Set) IsZero() bool {
	return s.m.IsZero()
}

// Range iterates over the members in insertion order. It walks the backing
// storage directly, one member per step, without materializing a copy.
func (s *Set) Range(yield func(elem any) bool) {
	s.m.RangeEntry(func(e *Entry) bool {
		return yield(e.Value)
	})
}

// All is the iterator version of Range, usable with range-over-func.
func (s *Set) All() func(yield func(any) bool) {
	return s.Range
}

// ToSlice collects the members into a slice in insertion order.
func (s *Set) ToSlice() []any {
	a := make([]any, 0, s.Size())
	s.Range(func(elem any) bool {
		a = append(a, elem)
		return true
	})
	return a
}

// Union returns a new Set holding every member of s followed by every member
// of other. Members present in both collapse, with other's representative
// winning.
//
// The algebra operations work on the signatures recorded at insertion time
// and never re-canonicalize, so they cannot fail.
func (s *Set) Union(other *Set) *Set {
	ns := NewSet()
	s.m.RangeEntry(func(e *Entry) bool {
		ns.m.storeSig(e.sig, e.Value, e.Value)
		return true
	})
	other.m.RangeEntry(func(e *Entry) bool {
		ns.m.storeSig(e.sig, e.Value, e.Value)
		return true
	})
	return ns
}

// Intersection returns a new Set holding the members of s also present in
// other.
func (s *Set) Intersection(other *Set) *Set {
	ns := NewSet()
	s.m.RangeEntry(func(e *Entry) bool {
		if other.m.hasSig(e.sig) {
			ns.m.storeSig(e.sig, e.Value, e.Value)
		}
		return true
	})
	return ns
}

// Difference returns a new Set holding the members of s not present in
// other.
func (s *Set) Difference(other *Set) *Set {
	ns := NewSet()
	s.m.RangeEntry(func(e *Entry) bool {
		if !other.m.hasSig(e.sig) {
			ns.m.storeSig(e.sig, e.Value, e.Value)
		}
		return true
	})
	return ns
}

// IsSubsetOf reports whether every member of s is present in other.
func (s *Set) IsSubsetOf(other *Set) bool {
	if s.Size() > other.Size() {
		return false
	}
	ok := true
	s.m.RangeEntry(func(e *Entry) bool {
		ok = other.m.hasSig(e.sig)
		return ok
	})
	return ok
}

// IsSupersetOf reports whether every member of other is present in s.
func (s *Set) IsSupersetOf(other *Set) bool {
	return other.IsSubsetOf(s)
}

// Equal reports whether s and other have the same members. Insertion order
// does not matter.
func (s *Set) Equal(other *Set) bool {
	return s.Size() == other.Size() && s.IsSubsetOf(other)
}

// Clone returns a shallow copy: members are shared, structure is not.
func (s *Set) Clone() *Set {
	ns := NewSet()
	s.m.RangeEntry(func(e *Entry) bool {
		ns.m.storeSig(e.sig, e.Value, e.Value)
		return true
	})
	return ns
}

// String implements fmt.Stringer.
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteString("Set[")
	first := true
	s.Range(func(elem any) bool {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%v", elem)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
