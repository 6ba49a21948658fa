package keyed

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// The containers serialize as ordered entry lists: an OrderedMap is a JSON
// object in insertion order, a HashMap an array of [key, value] pairs in
// traversal order, a Set an array of members in insertion order.
// Deserialization rebuilds values through an order-preserving decoder so
// that nested objects come back as *OrderedMap, arrays as []any, and
// integral numbers as int64; the numeric normalization in scalarCanon makes
// membership survive the round trip.

// MarshalJSON implements json.Marshaler. Keys must be scalars rendering to
// distinct object keys; every value must itself be representable in JSON.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	seen := make(map[string]struct{}, len(m.entryList()))
	for _, e := range m.entryList() {
		ks, err := jsonKeyString(e.Key)
		if err != nil {
			return nil, err
		}
		// Distinct keys can render to one object key (1 and "1", nil and
		// ""); a duplicate-key object would silently drop an entry on the
		// way back in.
		if _, dup := seen[ks]; dup {
			return nil, errors.Errorf("keyed: keys render to the same JSON object key %q", ks)
		}
		seen[ks] = struct{}{}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(ks)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(e.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "value for key %v", e.Key)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, replacing the map's contents
// with the object's entries in document order.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	v, err := decodeOrderedJSON(data)
	if err != nil {
		return err
	}
	om, ok := v.(*OrderedMap)
	if !ok {
		return errors.Errorf("keyed: cannot unmarshal %T into OrderedMap", v)
	}
	*m = *om
	return nil
}

// MarshalJSON implements json.Marshaler, encoding the table as an array of
// [key, value] pairs in traversal order so keys of any representable kind
// survive.
func (m *HashMap) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, m.size)
	m.RangeEntry(func(e *Entry) bool {
		pairs = append(pairs, [2]any{e.Key, e.Value})
		return true
	})
	return json.Marshal(pairs)
}

// UnmarshalJSON implements json.Unmarshaler, replacing the table's contents
// with the decoded [key, value] pairs.
func (m *HashMap) UnmarshalJSON(data []byte) error {
	v, err := decodeOrderedJSON(data)
	if err != nil {
		return err
	}
	pairs, ok := v.([]any)
	if !ok {
		return errors.Errorf("keyed: cannot unmarshal %T into HashMap", v)
	}
	m.Clear()
	for i, p := range pairs {
		kv, ok := p.([]any)
		if !ok || len(kv) != 2 {
			return errors.Errorf("keyed: HashMap pair %d is not a [key, value] array", i)
		}
		if err := m.Store(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler, encoding the members as an array in
// insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToSlice())
}

// UnmarshalJSON implements json.Unmarshaler, replacing the set's members
// with the decoded array's elements in order.
func (s *Set) UnmarshalJSON(data []byte) error {
	v, err := decodeOrderedJSON(data)
	if err != nil {
		return err
	}
	elems, ok := v.([]any)
	if !ok {
		return errors.Errorf("keyed: cannot unmarshal %T into Set", v)
	}
	s.Clear()
	return s.AddAll(elems...)
}

// jsonKeyString renders a scalar key as a JSON object key. Matches the usual
// dynamic-language convention: strings verbatim, numbers and booleans in
// their canonical decimal form, nil as the empty string.
func jsonKeyString(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "", nil
	case string:
		return k, nil
	case bool:
		if k {
			return "1", nil
		}
		return "0", nil
	}
	if classify(key) != kindScalar {
		return "", errors.Errorf("keyed: key of type %T is not representable as a JSON object key", key)
	}
	// scalarCanon prefixes the form with a one-byte kind tag.
	return scalarCanon(key)[1:], nil
}

// decodeOrderedJSON parses data into the canonical value model: *OrderedMap
// for objects (document order preserved), []any for arrays, int64 for
// integral numbers, float64 otherwise, plus string, bool and nil.
func decodeOrderedJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrderedValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("keyed: trailing data after JSON value")
	}
	return v, nil
}

func decodeOrderedValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewOrderedMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Errorf("keyed: unexpected object key token %v", keyTok)
				}
				val, err := decodeOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				if err := m.Store(key, val); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return m, nil
		case '[':
			a := []any{}
			for dec.More() {
				val, err := decodeOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				a = append(a, val)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return a, nil
		}
		return nil, errors.Errorf("keyed: unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, errors.Wrapf(err, "number %q", t.String())
		}
		return f, nil
	default:
		// string, bool or nil.
		return tok, nil
	}
}
