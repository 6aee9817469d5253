package models

import dErrors "faircircle/pkg/domain-errors"

// The full validation taxonomy for circle operations. Declared as package
// vars so callers can branch with errors.Is while handlers keep mapping by
// code. Every precondition failure leaves the aggregate untouched.
var (
	// Admission errors.
	ErrNameTooLong               = dErrors.New(dErrors.CodeBadRequest, "circle name is too long")
	ErrInvalidContributionAmount = dErrors.New(dErrors.CodeBadRequest, "invalid contribution amount")
	ErrInvalidPeriodLength       = dErrors.New(dErrors.CodeBadRequest, "invalid period length")

	// Membership errors.
	ErrCircleFull        = dErrors.New(dErrors.CodeConflict, "circle is full")
	ErrAlreadyJoined     = dErrors.New(dErrors.CodeConflict, "you have already joined this circle")
	ErrNotMember         = dErrors.New(dErrors.CodeForbidden, "you are not a member of this circle")
	ErrInsufficientScore = dErrors.New(dErrors.CodeForbidden, "your fair score does not meet the minimum requirement")
	ErrNotEnoughMembers  = dErrors.New(dErrors.CodeConflict, "not enough members to start the circle")

	// Authorization errors.
	ErrUnauthorized       = dErrors.New(dErrors.CodeForbidden, "you are not authorized to perform this action")
	ErrNotPayoutRecipient = dErrors.New(dErrors.CodeForbidden, "you are not the payout recipient for this round")

	// State errors.
	ErrCircleNotForming = dErrors.New(dErrors.CodeConflict, "circle is not in forming status")
	ErrCircleNotActive  = dErrors.New(dErrors.CodeConflict, "circle is not active")
	ErrRoundNotComplete = dErrors.New(dErrors.CodeConflict, "not all members have contributed for this round")
	ErrInvalidRound     = dErrors.New(dErrors.CodeConflict, "invalid round number")
	ErrCircleSettled    = dErrors.New(dErrors.CodeConflict, "circle is already completed or cancelled")

	// Double-action errors.
	ErrAlreadyContributed = dErrors.New(dErrors.CodeConflict, "you have already contributed for this round")
	ErrAlreadyClaimed     = dErrors.New(dErrors.CodeConflict, "you have already claimed your payout")
)
