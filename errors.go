package keyed

import (
	"github.com/pkg/errors"
)

// ErrNotHashable reports that a value cannot be reduced to a canonical
// signature: it is neither a supported scalar, an ordered aggregate, a
// reference-typed instance, nor serializable by the fallback encoder.
//
// Mutating and query operations that need a key signature return an error
// wrapping ErrNotHashable and leave their container unchanged. Test with
// errors.Is.
var ErrNotHashable = errors.New("keyed: value is not hashable")
