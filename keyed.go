// Package keyed provides associative containers whose keys and elements may
// be values of any kind: scalars, ordered aggregates, and reference-typed
// instances, mixed freely inside one container.
//
// All containers share one key-identity substrate: every key is reduced to a
// canonical [Signature] (see [SignatureOf]) and stored or located by it.
// Values that are equal under the package's equality contract produce the
// same signature; distinct reference-typed instances produce distinct
// signatures even when their contents match.
//
// The containers:
//   - [HashMap]: a chained hash table with load-factor-triggered growth.
//     Traversal order is bucket order, not insertion order.
//   - [OrderedMap]: an insertion-ordered map. Re-storing an existing key
//     updates its value in place without moving it.
//   - [Set]: a unique-element set with union/intersection/difference algebra.
//     Elements enumerate in insertion order.
//   - [WeakSet]: an identity-keyed set whose membership does not keep its
//     elements alive.
//
// All containers are single-threaded: an instance is owned by one logical
// caller at a time, and no operation blocks or spawns background work.
// External synchronization is required for concurrent use.
package keyed

// Entry is a key-value pair held by a HashMap or OrderedMap.
// The signature is computed once, when the entry is created, and is never
// recomputed afterwards.
type Entry struct {
	Key   any
	Value any

	sig Signature
}

const (
	// loadFactor is the size/capacity threshold that triggers table growth
	// in HashMap. Checked before every insert.
	loadFactor = 0.75

	// defaultTableCap is the initial bucket-array length of a HashMap.
	defaultTableCap = 17
)
