// Package ledger moves funds between member accounts and circle escrow
// accounts. The circle service treats it as an external collaborator: a
// transfer either settles in full or fails without effect.
package ledger

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks Ledger

import (
	"context"

	id "faircircle/pkg/domain"
)

// Account names a balance held by the ledger.
type Account string

func (a Account) String() string { return string(a) }

// MemberAccount is the account a member contributes from and receives
// payouts into.
func MemberAccount(p id.Principal) Account {
	return Account("member:" + p.String())
}

// EscrowAccount is the pooled account holding a circle's contributions
// until claimed.
func EscrowAccount(circleID id.CircleID) Account {
	return Account("escrow:" + circleID.String())
}

// Ledger executes value transfers between accounts.
//
// Transfer returns sentinel.ErrInsufficientFunds when the source account
// cannot cover the amount, and sentinel.ErrUnavailable when the backing
// system cannot be reached. Implementations must not apply partial effects
// on failure.
type Ledger interface {
	Transfer(ctx context.Context, from, to Account, amount int64) error
	Balance(ctx context.Context, account Account) (int64, error)
	Deposit(ctx context.Context, account Account, amount int64) error
}
