package keyed

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// Signature is an opaque canonical identity token derived from a value.
// Two values that are equal under the package's equality contract carry the
// same signature; values of different kinds never share one.
//
// Signatures are computed once per stored key and cached on the entry, so a
// key's identity is assigned when it enters a container and never recomputed.
// Aggregate keys are signed by content and must be treated as immutable for
// as long as they are used as keys.
type Signature string

// SignatureOf reduces a value to its canonical Signature.
//
// Classification is a closed dispatch over four kinds:
//   - scalars (nil, bool, string, integers, floats): signed by a fast
//     checksum of the value's canonical textual form. Numerically equal
//     scalars share a signature, so int64(1), uint8(1) and float64(1) are
//     one key.
//   - ordered aggregates (*OrderedMap and []any): signed recursively as the
//     checksum of the contained sig(key)=>sig(value) pairs in the
//     aggregate's own iteration order. Content equality is deliberately
//     order-sensitive.
//   - reference-typed values (pointers, channels, funcs, Go maps, other
//     slices): signed by instance identity, never by content. Two distinct
//     instances with identical contents are distinct keys.
//   - anything else: the opaque fallback, a deterministic JSON serialization
//     used verbatim as the signature.
//
// A value that fits no kind and cannot be serialized yields an error
// wrapping ErrNotHashable.
func SignatureOf(v any) (Signature, error) {
	switch classify(v) {
	case kindScalar:
		return scalarSignature(v), nil
	case kindAggregate:
		return aggregateSignature(v)
	case kindReference:
		return referenceSignature(v), nil
	default:
		return opaqueSignature(v)
	}
}

type valueKind uint8

const (
	kindScalar valueKind = iota
	kindAggregate
	kindReference
	kindOpaque
)

func classify(v any) valueKind {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return kindScalar
	case *OrderedMap, []any:
		return kindAggregate
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan,
		reflect.Func, reflect.Map, reflect.Slice:
		return kindReference
	}
	return kindOpaque
}

// checksum is the fast non-cryptographic hash behind scalar and aggregate
// signatures. Collisions between unequal values are possible and tolerated:
// HashMap re-checks exact key equality inside a bucket chain before treating
// two keys as the same (see exactEqual).
func checksum(b []byte) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE(b)), 16)
}

func scalarSignature(v any) Signature {
	return Signature("s" + checksum([]byte(scalarCanon(v))))
}

// scalarCanon returns the canonical textual form of a scalar. Numeric values
// are normalized: every unsigned value that fits an int64 and every float
// with an integral value uses the integer form, so equality survives a
// serialization round trip through JSON numbers.
func scalarCanon(v any) string {
	switch x := v.(type) {
	case nil:
		return "n"
	case bool:
		if x {
			return "bt"
		}
		return "bf"
	case string:
		return "x" + x
	case int:
		return "i" + strconv.FormatInt(int64(x), 10)
	case int8:
		return "i" + strconv.FormatInt(int64(x), 10)
	case int16:
		return "i" + strconv.FormatInt(int64(x), 10)
	case int32:
		return "i" + strconv.FormatInt(int64(x), 10)
	case int64:
		return "i" + strconv.FormatInt(x, 10)
	case uint:
		return uintCanon(uint64(x))
	case uint8:
		return uintCanon(uint64(x))
	case uint16:
		return uintCanon(uint64(x))
	case uint32:
		return uintCanon(uint64(x))
	case uint64:
		return uintCanon(x)
	case uintptr:
		return uintCanon(uint64(x))
	case float32:
		return floatCanon(float64(x))
	case float64:
		return floatCanon(x)
	}
	panic("keyed: non-scalar value in scalarCanon")
}

func uintCanon(x uint64) string {
	if x <= math.MaxInt64 {
		return "i" + strconv.FormatUint(x, 10)
	}
	return "u" + strconv.FormatUint(x, 10)
}

func floatCanon(f float64) string {
	if f == math.Trunc(f) {
		if f >= -(1<<63) && f < 1<<63 {
			return "i" + strconv.FormatInt(int64(f), 10)
		}
		// Integral floats up to the top of the uint64 range share the
		// unsigned canonical form.
		if f >= 1<<63 && f < 1<<64 {
			return "u" + strconv.FormatUint(uint64(f), 10)
		}
	}
	return "f" + strconv.FormatFloat(f, 'g', -1, 64)
}

// aggregateSignature signs an ordered aggregate by the concatenation of its
// contained sig(key)=>sig(value) pairs in iteration order. The two aggregate
// forms use distinct prefixes so a slice and a map with matching pair lists
// stay distinct.
func aggregateSignature(v any) (Signature, error) {
	var buf []byte
	switch agg := v.(type) {
	case *OrderedMap:
		for _, e := range agg.entryList() {
			vs, err := SignatureOf(e.Value)
			if err != nil {
				return "", errors.Wrapf(err, "aggregate value for key %v", e.Key)
			}
			buf = append(buf, e.sig...)
			buf = append(buf, '=', '>')
			buf = append(buf, vs...)
			buf = append(buf, ';')
		}
		return Signature("am" + checksum(buf)), nil
	case []any:
		for i, elem := range agg {
			es, err := SignatureOf(elem)
			if err != nil {
				return "", errors.Wrapf(err, "aggregate element %d", i)
			}
			buf = append(buf, scalarSignature(i)...)
			buf = append(buf, '=', '>')
			buf = append(buf, es...)
			buf = append(buf, ';')
		}
		return Signature("al" + checksum(buf)), nil
	}
	panic("keyed: non-aggregate value in aggregateSignature")
}

// referenceSignature derives an identity token from the instance's dynamic
// type and address. The address is stable for the lifetime of the instance;
// containers hold a strong reference to every stored key, so a live entry's
// identity token cannot be reused by another allocation.
//
// Two limits are inherent to address-derived identity. Distinct allocations
// of a zero-size pointee may share an address and then merge into one key;
// use Token for sentinel keys that must stay distinct. For funcs, the
// runtime promises only a representative code address, not one unique per
// closure, though in practice distinct closures carry distinct addresses.
func referenceSignature(v any) Signature {
	if tok, ok := v.(*Token); ok && tok != nil {
		// Tokens carry their own identity, assigned at creation.
		return Signature("rt" + strconv.FormatUint(tok.id, 10))
	}
	rv := reflect.ValueOf(v)
	sig := "r" + rv.Type().String() + "@" + strconv.FormatUint(uint64(rv.Pointer()), 16)
	if rv.Kind() == reflect.Slice {
		// Slices sharing a backing array differ only by length.
		sig += "." + strconv.Itoa(rv.Len())
	}
	return Signature(sig)
}

// opaqueSignature is the slow path for values no faster rule covers:
// a deterministic serialization used verbatim as the signature.
// encoding/json emits struct fields in declaration order and sorts Go map
// keys, but drops unexported fields, so the token pairs the JSON encoding
// with a go-syntax rendering, which names the dynamic type and covers the
// unexported content. A value encoding/json cannot serialize stays the
// boundary of hashability.
func opaqueSignature(v any) (Signature, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrapf(ErrNotHashable, "value of type %T: %v", v, err)
	}
	return Signature("j" + string(b) + "#" + fmt.Sprintf("%#v", v)), nil
}

// exactEqual reports whether two keys with equal signatures are the same key
// under the exact-equality rule used inside a HashMap bucket chain: value
// identity for scalars, instance identity for aggregates and references.
// Colliding signatures therefore never merge keys that are not truly equal.
// Opaque keys are equal whenever their verbatim signatures are, which the
// caller has already established.
func exactEqual(a, b any) bool {
	switch classify(a) {
	case kindScalar:
		// Comparing full canonical forms rather than checksums keeps a
		// checksum collision from merging unequal scalars, and keeps the
		// numeric normalization of scalarCanon in force.
		return classify(b) == kindScalar && scalarCanon(a) == scalarCanon(b)
	case kindAggregate, kindReference:
		return sameInstance(a, b)
	default:
		// The serialized signature is deterministic but not provably
		// injective, so the secondary check re-verifies content rather than
		// trusting the encoding.
		ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
		if ta != tb {
			return false
		}
		if ta.Comparable() {
			return a == b
		}
		return reflect.DeepEqual(a, b)
	}
}

func sameInstance(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() || ra.Pointer() != rb.Pointer() {
		return false
	}
	if ra.Kind() == reflect.Slice {
		return ra.Len() == rb.Len()
	}
	return true
}
