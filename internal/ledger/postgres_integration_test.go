//go:build integration

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"faircircle/pkg/platform/sentinel"
	txcontext "faircircle/pkg/platform/tx"
	"faircircle/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	ledger *Postgres
	ctx    context.Context
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.ledger = NewPostgres(s.pg.DB)
	s.Require().NoError(s.ledger.EnsureSchema(s.ctx))
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "balances"))
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) TestTransferMovesFunds() {
	s.Require().NoError(s.ledger.Deposit(s.ctx, MemberAccount("alice"), 500))

	s.Require().NoError(s.ledger.Transfer(s.ctx, MemberAccount("alice"), "escrow:c1", 300))

	from, err := s.ledger.Balance(s.ctx, MemberAccount("alice"))
	s.Require().NoError(err)
	to, err := s.ledger.Balance(s.ctx, "escrow:c1")
	s.Require().NoError(err)
	s.Equal(int64(200), from)
	s.Equal(int64(300), to)
}

func (s *PostgresLedgerSuite) TestTransferOverdraft() {
	s.Require().NoError(s.ledger.Deposit(s.ctx, MemberAccount("alice"), 100))

	err := s.ledger.Transfer(s.ctx, MemberAccount("alice"), "escrow:c1", 101)
	s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)

	from, err := s.ledger.Balance(s.ctx, MemberAccount("alice"))
	s.Require().NoError(err)
	s.Equal(int64(100), from)
}

func (s *PostgresLedgerSuite) TestTransferFromUnknownAccount() {
	err := s.ledger.Transfer(s.ctx, MemberAccount("ghost"), "escrow:c1", 1)
	s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)
}

func (s *PostgresLedgerSuite) TestBalanceOfUnknownAccountIsZero() {
	amount, err := s.ledger.Balance(s.ctx, MemberAccount("ghost"))
	s.Require().NoError(err)
	s.Zero(amount)
}

// TestTransferJoinsCallerTransaction verifies a transfer inside a rolled-back
// outer transaction leaves no trace, mirroring how the circle store's Execute
// discards ledger effects when the circle mutation fails.
func (s *PostgresLedgerSuite) TestTransferJoinsCallerTransaction() {
	s.Require().NoError(s.ledger.Deposit(s.ctx, MemberAccount("alice"), 500))

	sqlTx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)

	txCtx := txcontext.WithTx(s.ctx, sqlTx)
	s.Require().NoError(s.ledger.Transfer(txCtx, MemberAccount("alice"), "escrow:c1", 300))
	s.Require().NoError(sqlTx.Rollback())

	from, err := s.ledger.Balance(s.ctx, MemberAccount("alice"))
	s.Require().NoError(err)
	s.Equal(int64(500), from)
}
