package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"faircircle/pkg/platform/sentinel"
	txcontext "faircircle/pkg/platform/tx"
)

// Postgres is a Ledger backed by a balances table. When the context carries
// a transaction (put there by the circle store's Execute), all statements
// run inside it so a failed circle operation rolls the transfer back too.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// BalancesSchema is the DDL for the ledger table.
const BalancesSchema = `
CREATE TABLE IF NOT EXISTS balances (
    account TEXT PRIMARY KEY,
    amount  BIGINT NOT NULL CHECK (amount >= 0)
)`

// EnsureSchema creates the balances table if it does not exist.
func (l *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, BalancesSchema); err != nil {
		return fmt.Errorf("ensure balances schema: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *Postgres) conn(ctx context.Context) execer {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return l.db
}

func (l *Postgres) Transfer(ctx context.Context, from, to Account, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	// Join the caller's transaction when one is in flight; otherwise open
	// our own so the debit and credit land together.
	if _, ok := txcontext.From(ctx); !ok {
		sqlTx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transfer tx: %w", err)
		}
		if err := l.transfer(txcontext.WithTx(ctx, sqlTx), from, to, amount); err != nil {
			_ = sqlTx.Rollback()
			return err
		}
		if err := sqlTx.Commit(); err != nil {
			return fmt.Errorf("commit transfer tx: %w", err)
		}
		return nil
	}
	return l.transfer(ctx, from, to, amount)
}

func (l *Postgres) transfer(ctx context.Context, from, to Account, amount int64) error {
	conn := l.conn(ctx)

	// The debit's CHECK constraint rejects overdrafts; a zero-row update
	// means the source account does not exist.
	res, err := conn.ExecContext(ctx,
		`UPDATE balances SET amount = amount - $2 WHERE account = $1`,
		from.String(), amount)
	if err != nil {
		if isCheckViolation(err) {
			return sentinel.ErrInsufficientFunds
		}
		return fmt.Errorf("debit %s: %w", from, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if affected == 0 {
		return sentinel.ErrInsufficientFunds
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO balances (account, amount) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		to.String(), amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "check_violation"
}

func (l *Postgres) Balance(ctx context.Context, account Account) (int64, error) {
	var amount int64
	err := l.conn(ctx).QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE account = $1`, account.String()).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", account, err)
	}
	return amount, nil
}

func (l *Postgres) Deposit(ctx context.Context, account Account, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amount)
	}
	if _, err := l.conn(ctx).ExecContext(ctx, `
		INSERT INTO balances (account, amount) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		account.String(), amount); err != nil {
		return fmt.Errorf("deposit %s: %w", account, err)
	}
	return nil
}
