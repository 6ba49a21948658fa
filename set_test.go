package keyed

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func mustSet(t *testing.T, elems ...any) *Set {
	t.Helper()
	s, err := NewSetOf(elems...)
	if err != nil {
		t.Fatalf("NewSetOf(%v): %v", elems, err)
	}
	return s
}

func TestSet_AddHasDelete(t *testing.T) {
	s := NewSet()
	if err := s.Add(1); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Has(1); err != nil || !ok {
		t.Fatalf("Has(1) = %v, %v", ok, err)
	}
	if ok, _ := s.Has(2); ok {
		t.Fatal("Has(2) on {1}")
	}
	if ok, err := s.Delete(1); err != nil || !ok {
		t.Fatalf("Delete(1) = %v, %v", ok, err)
	}
	if ok, _ := s.Delete(1); ok {
		t.Fatal("second Delete(1) reports removal")
	}
	if !s.IsZero() {
		t.Fatal("set not empty after delete")
	}
}

func TestSet_DuplicateAddKeepsSize(t *testing.T) {
	s := mustSet(t, 1, 2)
	if err := s.Add(int64(1)); err != nil {
		t.Fatal(err)
	}
	if s.Size() != 2 {
		t.Fatalf("Size() = %d after duplicate add, want 2", s.Size())
	}
	// The duplicate add replaced the stored representative.
	elems := s.ToSlice()
	if reflect.TypeOf(elems[0]) != reflect.TypeOf(int64(0)) {
		t.Fatalf("representative not replaced: %T", elems[0])
	}
}

func TestSet_InsertionOrderEnumeration(t *testing.T) {
	s := mustSet(t, "c", "a", "b", "a")
	if got := s.ToSlice(); !reflect.DeepEqual(got, []any{"c", "a", "b"}) {
		t.Fatalf("enumeration = %v", got)
	}

	n := 0
	s.Range(func(elem any) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("Range did not stop on false, visited %d", n)
	}
}

func TestSet_Algebra(t *testing.T) {
	a := mustSet(t, 1, 2)
	b := mustSet(t, 2, 3)

	u := a.Union(b)
	if u.Size() != 3 {
		t.Fatalf("union size = %d, want 3", u.Size())
	}
	if !u.Equal(mustSet(t, 1, 2, 3)) {
		t.Fatalf("union = %v", u)
	}

	if got := a.Intersection(b); !got.Equal(mustSet(t, 2)) {
		t.Fatalf("intersection = %v", got)
	}
	if got := a.Difference(b); !got.Equal(mustSet(t, 1)) {
		t.Fatalf("difference = %v", got)
	}

	if !mustSet(t, 1).IsSubsetOf(a) || mustSet(t, 3).IsSubsetOf(a) {
		t.Fatal("IsSubsetOf misbehaves")
	}
	if !a.IsSubsetOf(a) || !a.IsSupersetOf(a) {
		t.Fatal("set is not subset/superset of itself")
	}
	if !u.IsSupersetOf(a) || a.IsSupersetOf(u) {
		t.Fatal("IsSupersetOf misbehaves")
	}
	if a.Equal(b) || !a.Equal(mustSet(t, 2, 1)) {
		t.Fatal("Equal misbehaves")
	}
}

func TestSet_AlgebraPreservesOrder(t *testing.T) {
	a := mustSet(t, 1, 2)
	b := mustSet(t, 2, 3)
	if got := a.Union(b).ToSlice(); !reflect.DeepEqual(got, []any{1, 2, 3}) {
		t.Fatalf("union order = %v", got)
	}
	if got := b.Difference(a).ToSlice(); !reflect.DeepEqual(got, []any{3}) {
		t.Fatalf("difference order = %v", got)
	}
}

func TestSet_HeterogeneousMembers(t *testing.T) {
	p := &point{1, 2}
	om := NewOrderedMap()
	if err := om.Store("x", 1); err != nil {
		t.Fatal(err)
	}
	s := mustSet(t, 1, "a", p, om)
	if s.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", s.Size())
	}

	// Aggregate membership is content-keyed.
	other := NewOrderedMap()
	if err := other.Store("x", 1); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Has(other); err != nil || !ok {
		t.Fatalf("Has(content-equal aggregate) = %v, %v", ok, err)
	}

	// Reference membership is identity-keyed.
	if ok, _ := s.Has(&point{1, 2}); ok {
		t.Fatal("distinct instance with identical fields is a member")
	}
}

func TestSet_AddAllAggregatesErrors(t *testing.T) {
	s := NewSet()
	err := s.AddAll(1, complex(1, 2), 2, complex(3, 4))
	if !errors.Is(err, ErrNotHashable) {
		t.Fatalf("AddAll = %v, want aggregated ErrNotHashable", err)
	}
	if s.Size() != 2 {
		t.Fatalf("Size() = %d, hashable elements of failing batch must land", s.Size())
	}
}

func TestSet_CloneClear(t *testing.T) {
	s := mustSet(t, 1, 2, 3)
	c := s.Clone()
	s.Clear()
	if s.Size() != 0 || c.Size() != 3 {
		t.Fatalf("clone/clear sizes = %d, %d", s.Size(), c.Size())
	}
}

func TestSet_String(t *testing.T) {
	s := mustSet(t, 1, "a")
	if s.String() != "Set[1 a]" {
		t.Fatalf("String() = %q", s.String())
	}
}
