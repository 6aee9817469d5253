package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faircircle/pkg/platform/sentinel"
)

func TestInMemoryTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds between accounts", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Deposit(ctx, MemberAccount("alice"), 500))

		require.NoError(t, l.Transfer(ctx, MemberAccount("alice"), "escrow:c1", 300))

		from, _ := l.Balance(ctx, MemberAccount("alice"))
		to, _ := l.Balance(ctx, "escrow:c1")
		assert.Equal(t, int64(200), from)
		assert.Equal(t, int64(300), to)
	})

	t.Run("rejects transfer exceeding balance without side effects", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Deposit(ctx, MemberAccount("alice"), 100))

		err := l.Transfer(ctx, MemberAccount("alice"), "escrow:c1", 101)
		require.ErrorIs(t, err, sentinel.ErrInsufficientFunds)

		from, _ := l.Balance(ctx, MemberAccount("alice"))
		to, _ := l.Balance(ctx, "escrow:c1")
		assert.Equal(t, int64(100), from)
		assert.Equal(t, int64(0), to)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l := NewInMemory()
		assert.Error(t, l.Transfer(ctx, "a", "b", 0))
		assert.Error(t, l.Transfer(ctx, "a", "b", -5))
		assert.Error(t, l.Deposit(ctx, "a", 0))
	})
}
