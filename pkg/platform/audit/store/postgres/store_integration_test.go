//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "faircircle/pkg/domain"
	audit "faircircle/pkg/platform/audit"
	txcontext "faircircle/pkg/platform/tx"
	"faircircle/pkg/testutil/containers"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
	ctx   context.Context
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "audit_events"))
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) TestAppendAndListByCircle() {
	circleID := id.NewCircleID()
	base := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Timestamp: base,
		CircleID:  circleID,
		Actor:     "alice",
		Action:    string(audit.EventCircleCreated),
	}))
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Timestamp: base.Add(time.Second),
		CircleID:  circleID,
		Actor:     "bob",
		Action:    string(audit.EventContributionRecorded),
		Amount:    100,
		Round:     1,
	}))
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Timestamp: base,
		CircleID:  id.NewCircleID(),
		Actor:     "carol",
		Action:    string(audit.EventCircleCreated),
	}))

	events, err := s.store.ListByCircle(s.ctx, circleID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCircleCreated), events[0].Action)
	s.Equal(string(audit.EventContributionRecorded), events[1].Action)
	s.Equal(audit.CategoryFinancial, events[1].Category)
	s.Equal(int64(100), events[1].Amount)
	s.Equal(uint8(1), events[1].Round)
	s.Equal(circleID, events[1].CircleID)
}

func (s *PostgresAuditStoreSuite) TestAppendJoinsCallerTransaction() {
	circleID := id.NewCircleID()

	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)

	err = s.store.Append(txcontext.WithTx(s.ctx, tx), audit.Event{
		Timestamp: time.Now().UTC(),
		CircleID:  circleID,
		Actor:     "alice",
		Action:    string(audit.EventMemberJoined),
	})
	s.Require().NoError(err)
	s.Require().NoError(tx.Rollback())

	events, err := s.store.ListByCircle(s.ctx, circleID)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *PostgresAuditStoreSuite) TestListRecent() {
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Append(s.ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			CircleID:  id.NewCircleID(),
			Actor:     "alice",
			Action:    string(audit.EventCircleCreated),
		}))
	}

	events, err := s.store.ListRecent(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.True(events[0].Timestamp.After(events[1].Timestamp))
}
