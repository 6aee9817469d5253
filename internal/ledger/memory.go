package ledger

import (
	"context"
	"fmt"
	"sync"

	"faircircle/pkg/platform/sentinel"
)

// InMemory is a Ledger backed by a map of balances. Used in tests and
// single-process deployments.
type InMemory struct {
	mu       sync.Mutex
	balances map[Account]int64
}

// NewInMemory constructs an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[Account]int64)}
}

func (l *InMemory) Transfer(_ context.Context, from, to Account, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return sentinel.ErrInsufficientFunds
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *InMemory) Balance(_ context.Context, account Account) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *InMemory) Deposit(_ context.Context, account Account, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
	return nil
}
