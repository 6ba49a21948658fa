package keyed

import "strconv"

// Token is an identity-only sentinel for use as a key or set member.
//
// The usual Go sentinel idiom, new(struct{}), allocates a zero-size instance
// whose address the runtime may share with other zero-size allocations;
// under address-derived identity such sentinels can merge into one key. A
// Token instead carries a process-unique identity assigned at creation and
// never recomputed, so every Token is a distinct key in every container.
type Token struct {
	id uint64
}

var lastTokenID uint64

// NewToken creates a Token with a fresh identity.
func NewToken() *Token {
	lastTokenID++
	return &Token{id: lastTokenID}
}

// String implements fmt.Stringer.
func (t *Token) String() string {
	return "Token(" + strconv.FormatUint(t.id, 10) + ")"
}
