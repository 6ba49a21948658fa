package keyed

import (
	"fmt"
	"strings"
	"weak"
)

// WeakSet is an identity-keyed set over reference-typed elements whose
// membership does not keep the elements alive. Once nothing else holds a
// strong reference to a member, the garbage collector may reclaim it at any
// time, and its membership entry silently goes with it.
//
// Reclaimed members are swept out at defined checkpoints: the start of every
// WeakSet operation. Between checkpoints, Size and enumeration are only
// observed bounds, not stable counts, and the algebra operations reflect a
// momentary snapshot of membership with no guarantee that the same elements
// are still members afterwards.
//
// The zero WeakSet is empty and ready to use.
// Not safe for concurrent use.
type WeakSet[T any] struct {
	elems map[weak.Pointer[T]]struct{}
}

// NewWeakSet creates an empty WeakSet.
func NewWeakSet[T any]() *WeakSet[T] {
	return &WeakSet[T]{}
}

// sweep drops the entries whose element has been reclaimed. Called at the
// start of every operation, which is the only point where membership decay
// becomes observable.
func (s *WeakSet[T]) sweep() {
	for wp := range s.elems {
		if wp.Value() == nil {
			delete(s.elems, wp)
		}
	}
}

// Add inserts elem. Adding a member again is a no-op, membership is keyed by
// instance identity. A nil elem is ignored.
func (s *WeakSet[T]) Add(elem *T) {
	s.sweep()
	if elem == nil {
		return
	}
	if s.elems == nil {
		s.elems = make(map[weak.Pointer[T]]struct{})
	}
	s.elems[weak.Make(elem)] = struct{}{}
}

// Has reports whether elem is currently a member.
func (s *WeakSet[T]) Has(elem *T) bool {
	s.sweep()
	if elem == nil {
		return false
	}
	_, ok := s.elems[weak.Make(elem)]
	return ok
}

// Delete removes elem and reports whether it was a member.
func (s *WeakSet[T]) Delete(elem *T) bool {
	s.sweep()
	if elem == nil {
		return false
	}
	wp := weak.Make(elem)
	if _, ok := s.elems[wp]; !ok {
		return false
	}
	delete(s.elems, wp)
	return true
}

// Clear removes all members.
func (s *WeakSet[T]) Clear() {
	s.elems = nil
}

// Size returns the number of members still alive at this checkpoint.
func (s *WeakSet[T]) Size() int {
	s.sweep()
	return len(s.elems)
}

// IsZero checks for emptiness, equivalent to Size() == 0.
func (s *WeakSet[T]) IsZero() bool {
	return s.Size() == 0
}

// Range iterates over the live members in no particular order. The yielded
// pointers are strong references, so members cannot be reclaimed while the
// caller holds on to them.
func (s *WeakSet[T]) Range(yield func(elem *T) bool) {
	s.sweep()
	for wp := range s.elems {
		if elem := wp.Value(); elem != nil {
			if !yield(elem) {
				return
			}
		}
	}
}

// All is the iterator version of Range, usable with range-over-func.
func (s *WeakSet[T]) All() func(yield func(*T) bool) {
	return s.Range
}

// ToSlice collects strong references to the live members.
func (s *WeakSet[T]) ToSlice() []*T {
	a := make([]*T, 0, len(s.elems))
	s.Range(func(elem *T) bool {
		a = append(a, elem)
		return true
	})
	return a
}

// Union returns a new WeakSet holding the live members of both sets at this
// checkpoint. The result is itself weak: it confers no lifetime on its
// members.
func (s *WeakSet[T]) Union(other *WeakSet[T]) *WeakSet[T] {
	ns := NewWeakSet[T]()
	s.Range(func(elem *T) bool {
		ns.Add(elem)
		return true
	})
	other.Range(func(elem *T) bool {
		ns.Add(elem)
		return true
	})
	return ns
}

// Intersection returns a new WeakSet holding the live members of s also
// present in other.
func (s *WeakSet[T]) Intersection(other *WeakSet[T]) *WeakSet[T] {
	ns := NewWeakSet[T]()
	s.Range(func(elem *T) bool {
		if _, ok := other.elems[weak.Make(elem)]; ok {
			ns.Add(elem)
		}
		return true
	})
	return ns
}

// Difference returns a new WeakSet holding the live members of s not present
// in other.
func (s *WeakSet[T]) Difference(other *WeakSet[T]) *WeakSet[T] {
	ns := NewWeakSet[T]()
	other.sweep()
	s.Range(func(elem *T) bool {
		if _, ok := other.elems[weak.Make(elem)]; !ok {
			ns.Add(elem)
		}
		return true
	})
	return ns
}

// IsSubsetOf reports whether every live member of s is a member of other.
func (s *WeakSet[T]) IsSubsetOf(other *WeakSet[T]) bool {
	other.sweep()
	ok := true
	s.Range(func(elem *T) bool {
		_, ok = other.elems[weak.Make(elem)]
		return ok
	})
	return ok
}

// IsSupersetOf reports whether every live member of other is a member of s.
func (s *WeakSet[T]) IsSupersetOf(other *WeakSet[T]) bool {
	return other.IsSubsetOf(s)
}

// Equal reports whether both sets have the same live members at this
// checkpoint.
func (s *WeakSet[T]) Equal(other *WeakSet[T]) bool {
	return s.Size() == other.Size() && s.IsSubsetOf(other)
}

// Clone returns a copy of the current live membership. The copy is weak.
func (s *WeakSet[T]) Clone() *WeakSet[T] {
	ns := NewWeakSet[T]()
	s.Range(func(elem *T) bool {
		ns.Add(elem)
		return true
	})
	return ns
}

// String implements fmt.Stringer.
func (s *WeakSet[T]) String() string {
	var sb strings.Builder
	sb.WriteString("WeakSet[")
	first := true
	s.Range(func(elem *T) bool {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%v", *elem)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
