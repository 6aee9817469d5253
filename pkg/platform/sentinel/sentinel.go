package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger return
// these (optionally wrapped) so services can translate them into domain
// errors with the right code.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: circle or account does not exist in the store
// - ErrAlreadyUsed: key already taken (a creator already owns a circle)
// - ErrInsufficientFunds: transfer source cannot cover the amount
// - ErrInvalidState: entity in wrong state for the requested operation
// - ErrUnavailable: external collaborator temporarily unreachable
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyUsed       = errors.New("already used")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnavailable       = errors.New("unavailable")
)
