// Package domain defines the typed identifiers shared across modules.
//
// Typed IDs prevent cross-type assignment at compile time: a Principal can
// never be passed where a CircleID is expected and vice versa.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "faircircle/pkg/domain-errors"
)

// CircleID identifies a circle aggregate.
type CircleID uuid.UUID

// NilCircleID is the zero CircleID.
var NilCircleID = CircleID(uuid.Nil)

func (c CircleID) String() string {
	return uuid.UUID(c).String()
}

// IsNil reports whether the ID is the zero UUID.
func (c CircleID) IsNil() bool {
	return uuid.UUID(c) == uuid.Nil
}

// NewCircleID generates a random circle ID.
func NewCircleID() CircleID {
	return CircleID(uuid.New())
}

// ParseCircleID parses a circle ID at a trust boundary. Empty strings, bad
// formats, and the nil UUID are all rejected.
func ParseCircleID(raw string) (CircleID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return NilCircleID, dErrors.New(dErrors.CodeBadRequest, "invalid circle id")
	}
	if parsed == uuid.Nil {
		return NilCircleID, dErrors.New(dErrors.CodeBadRequest, "circle id cannot be nil")
	}
	return CircleID(parsed), nil
}

// Principal identifies a party that can authorize operations: a circle
// creator, a member, or a payout recipient. Principals are opaque identity
// strings proven by the authentication layer (the JWT subject); the core
// only ever compares them for equality.
type Principal string

// NilPrincipal is the zero Principal.
const NilPrincipal Principal = ""

func (p Principal) String() string {
	return string(p)
}

// IsNil reports whether the principal is unset.
func (p Principal) IsNil() bool {
	return p == NilPrincipal
}

const maxPrincipalLen = 64

// ParsePrincipal validates a principal identity at a trust boundary.
func ParsePrincipal(raw string) (Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NilPrincipal, dErrors.New(dErrors.CodeBadRequest, "principal is required")
	}
	if len(raw) > maxPrincipalLen {
		return NilPrincipal, dErrors.New(dErrors.CodeBadRequest, "principal is too long")
	}
	return Principal(raw), nil
}
