package keyed

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOrderedMap_JSONRoundTrip(t *testing.T) {
	m := NewOrderedMap()
	for i, k := range []string{"a", "b", "c"} {
		if err := m.Store(k, i+1); err != nil {
			t.Fatal(err)
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1,"b":2,"c":3}` {
		t.Fatalf("marshal = %s", data)
	}

	got := NewOrderedMap()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatal(err)
	}
	if keys := orderedKeys(got); !reflect.DeepEqual(keys, []any{"a", "b", "c"}) {
		t.Fatalf("order after round trip = %v", keys)
	}
	for i, k := range []string{"a", "b", "c"} {
		v, ok, err := got.Load(k)
		if err != nil || !ok || v != int64(i+1) {
			t.Fatalf("Load(%s) = %v, %v, %v", k, v, ok, err)
		}
	}
}

func TestOrderedMap_JSONScalarKeys(t *testing.T) {
	m := NewOrderedMap()
	if err := m.Store(1, "one"); err != nil {
		t.Fatal(err)
	}
	if err := m.Store(2.5, "half"); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"1":"one","2.5":"half"}` {
		t.Fatalf("marshal = %s", data)
	}
}

func TestOrderedMap_JSONNonScalarKeyFails(t *testing.T) {
	m := NewOrderedMap()
	if err := m.Store(&point{1, 2}, "v"); err != nil {
		t.Fatal(err)
	}
	if _, err := json.Marshal(m); err == nil {
		t.Fatal("marshal with reference key did not fail")
	}
}

func TestOrderedMap_JSONDuplicateRenderedKeys(t *testing.T) {
	// Distinct map keys can render to the same JSON object key; marshalling
	// must refuse rather than emit a duplicate-key object.
	pairs := [][2]any{
		{1, "1"},
		{nil, ""},
		{true, "1"},
	}
	for _, pair := range pairs {
		m := NewOrderedMap()
		if err := m.Store(pair[0], "a"); err != nil {
			t.Fatal(err)
		}
		if err := m.Store(pair[1], "b"); err != nil {
			t.Fatal(err)
		}
		if _, err := json.Marshal(m); err == nil {
			t.Fatalf("marshal with keys %v and %v did not fail", pair[0], pair[1])
		}
	}
}

func TestSet_JSONRoundTrip(t *testing.T) {
	agg := NewOrderedMap()
	if err := agg.Store("x", 1); err != nil {
		t.Fatal(err)
	}
	s := mustSet(t, 1, 2, "a", agg)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[1,2,"a",{"x":1}]` {
		t.Fatalf("marshal = %s", data)
	}

	got := NewSet()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatal(err)
	}
	if got.Size() != 4 {
		t.Fatalf("Size() = %d after round trip, want 4", got.Size())
	}
	for _, elem := range []any{1, int64(2), "a"} {
		if ok, err := got.Has(elem); err != nil || !ok {
			t.Fatalf("Has(%v) = %v, %v", elem, ok, err)
		}
	}
	inner := NewOrderedMap()
	if err := inner.Store("x", 1); err != nil {
		t.Fatal(err)
	}
	if ok, err := got.Has(inner); err != nil || !ok {
		t.Fatal("aggregate membership lost in round trip")
	}

	// Insertion order survives too.
	gotOrder := got.ToSlice()
	if gotOrder[0] != int64(1) || gotOrder[1] != int64(2) || gotOrder[2] != "a" {
		t.Fatalf("order after round trip = %v", gotOrder)
	}
}

func TestHashMap_JSONRoundTrip(t *testing.T) {
	m := NewHashMap()
	if err := m.StoreAll(
		Entry{Key: 1, Value: "one"},
		Entry{Key: "a", Value: 2},
		Entry{Key: nil, Value: true},
	); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	got := NewHashMap()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatal(err)
	}
	if got.Size() != 3 {
		t.Fatalf("Size() = %d after round trip, want 3", got.Size())
	}
	if v, ok, _ := got.Load(1); !ok || v != "one" {
		t.Fatalf("Load(1) = %v, %v", v, ok)
	}
	if v, ok, _ := got.Load("a"); !ok || v != int64(2) {
		t.Fatalf("Load(a) = %v, %v", v, ok)
	}
	if v, ok, _ := got.Load(nil); !ok || v != true {
		t.Fatalf("Load(nil) = %v, %v", v, ok)
	}
}

func TestHashMap_JSONRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		`{"a":1}`,
		`[[1]]`,
		`[[1,2,3]]`,
		`[1]`,
	} {
		if err := json.Unmarshal([]byte(data), NewHashMap()); err == nil {
			t.Fatalf("unmarshal of %s did not fail", data)
		}
	}
}

func TestDecodeOrderedJSON_Shapes(t *testing.T) {
	v, err := decodeOrderedJSON([]byte(`{"a":[1,2.5,{"b":null}],"c":true}`))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(*OrderedMap)
	if !ok {
		t.Fatalf("decoded %T, want *OrderedMap", v)
	}
	if keys := orderedKeys(m); !reflect.DeepEqual(keys, []any{"a", "c"}) {
		t.Fatalf("keys = %v", keys)
	}
	av, _, _ := m.Load("a")
	arr, ok := av.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("a = %#v", av)
	}
	if arr[0] != int64(1) {
		t.Fatalf("integral number decoded as %T", arr[0])
	}
	if arr[1] != 2.5 {
		t.Fatalf("fractional number decoded as %v", arr[1])
	}
	inner, ok := arr[2].(*OrderedMap)
	if !ok {
		t.Fatalf("nested object decoded as %T", arr[2])
	}
	if v, ok, _ := inner.Load("b"); !ok || v != nil {
		t.Fatalf("inner b = %v, %v", v, ok)
	}
	if cv, _, _ := m.Load("c"); cv != true {
		t.Fatalf("c = %v", cv)
	}

	if _, err := decodeOrderedJSON([]byte(`{"a":1} trailing`)); err == nil {
		t.Fatal("trailing data accepted")
	}
}
