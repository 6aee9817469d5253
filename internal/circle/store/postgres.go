package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"faircircle/internal/circle/models"
	id "faircircle/pkg/domain"
	"faircircle/pkg/platform/sentinel"
	txcontext "faircircle/pkg/platform/tx"
)

// Postgres persists circles in PostgreSQL. Fixed-capacity arrays map to
// postgres arrays; the contribution matrix is flattened member-major into a
// single boolean array of capacity*capacity cells.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed circle store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL for the circles table. Applied by EnsureSchema and by
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS circles (
    id                  UUID PRIMARY KEY,
    creator             TEXT NOT NULL UNIQUE,
    name                TEXT NOT NULL,
    contribution_amount BIGINT NOT NULL,
    period_length       BIGINT NOT NULL,
    min_score           SMALLINT NOT NULL,
    status              TEXT NOT NULL,
    current_round       SMALLINT NOT NULL,
    member_count        SMALLINT NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    round_started_at    TIMESTAMPTZ NOT NULL,
    total_pool          BIGINT NOT NULL,
    round_complete      BOOLEAN NOT NULL,
    members             TEXT[] NOT NULL,
    scores              SMALLINT[] NOT NULL,
    payout_order        SMALLINT[] NOT NULL,
    contributions       BOOLEAN[] NOT NULL,
    claimed             BOOLEAN[] NOT NULL
)`

// EnsureSchema creates the circles table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure circles schema: %w", err)
	}
	return nil
}

const circleColumns = `id, creator, name, contribution_amount, period_length, min_score,
	status, current_round, member_count, created_at, round_started_at,
	total_pool, round_complete, members, scores, payout_order, contributions, claimed`

func (s *Postgres) CreateIfCreatorAvailable(ctx context.Context, circle *models.Circle) error {
	row := toRow(circle)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO circles (`+circleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		row.id, row.creator, row.name, row.contributionAmount, row.periodLength, row.minScore,
		row.status, row.currentRound, row.memberCount, row.createdAt, row.roundStartedAt,
		row.totalPool, row.roundComplete,
		pq.Array(row.members), pq.Array(row.scores), pq.Array(row.payoutOrder),
		pq.Array(row.contributions), pq.Array(row.claimed),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert circle: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, circleID id.CircleID) (*models.Circle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+circleColumns+` FROM circles WHERE id = $1`, circleID.String())
	circle, err := scanCircle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find circle: %w", err)
	}
	return circle, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Circle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+circleColumns+` FROM circles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()

	var circles []*models.Circle
	for rows.Next() {
		circle, err := scanCircle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		circles = append(circles, circle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	return circles, nil
}

// Execute loads the circle with SELECT ... FOR UPDATE, runs fn inside the
// transaction (exposed via context so the postgres ledger joins it), and
// commits the updated row iff fn returns nil. The row lock serializes
// concurrent operations on the same circle across instances.
func (s *Postgres) Execute(ctx context.Context, circleID id.CircleID, fn func(ctx context.Context, c *models.Circle) error) (circle *models.Circle, err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin circle tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	row := sqlTx.QueryRowContext(ctx,
		`SELECT `+circleColumns+` FROM circles WHERE id = $1 FOR UPDATE`, circleID.String())
	circle, err = scanCircle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock circle: %w", err)
	}

	if err = fn(txcontext.WithTx(ctx, sqlTx), circle); err != nil {
		return nil, err
	}

	r := toRow(circle)
	_, err = sqlTx.ExecContext(ctx, `
		UPDATE circles SET
			name = $2, status = $3, current_round = $4, member_count = $5,
			round_started_at = $6, total_pool = $7, round_complete = $8,
			members = $9, scores = $10, payout_order = $11,
			contributions = $12, claimed = $13
		WHERE id = $1`,
		r.id, r.name, r.status, r.currentRound, r.memberCount,
		r.roundStartedAt, r.totalPool, r.roundComplete,
		pq.Array(r.members), pq.Array(r.scores), pq.Array(r.payoutOrder),
		pq.Array(r.contributions), pq.Array(r.claimed),
	)
	if err != nil {
		return nil, fmt.Errorf("update circle: %w", err)
	}

	if err = sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit circle tx: %w", err)
	}
	return circle, nil
}

// circleRow is the flat postgres representation of a circle.
type circleRow struct {
	id                 string
	creator            string
	name               string
	contributionAmount int64
	periodLength       int64
	minScore           int16
	status             string
	currentRound       int16
	memberCount        int16
	createdAt          time.Time
	roundStartedAt     time.Time
	totalPool          int64
	roundComplete      bool
	members            []string
	scores             []int64
	payoutOrder        []int64
	contributions      []bool
	claimed            []bool
}

func toRow(c *models.Circle) circleRow {
	row := circleRow{
		id:                 c.ID.String(),
		creator:            c.Creator.String(),
		name:               c.Name,
		contributionAmount: c.ContributionAmount,
		periodLength:       c.PeriodLength,
		minScore:           int16(c.MinScore),
		status:             string(c.Status),
		currentRound:       int16(c.CurrentRound),
		memberCount:        int16(c.MemberCount),
		createdAt:          c.CreatedAt,
		roundStartedAt:     c.RoundStartedAt,
		totalPool:          c.TotalPool,
		roundComplete:      c.RoundComplete,
		members:            make([]string, models.MaxMembers),
		scores:             make([]int64, models.MaxMembers),
		payoutOrder:        make([]int64, models.MaxMembers),
		contributions:      make([]bool, models.MaxMembers*models.MaxMembers),
		claimed:            make([]bool, models.MaxMembers),
	}
	for i := 0; i < models.MaxMembers; i++ {
		row.members[i] = c.Members[i].String()
		row.scores[i] = int64(c.Scores[i])
		row.payoutOrder[i] = int64(c.PayoutOrder[i])
		row.claimed[i] = c.Claimed[i]
		for j := 0; j < models.MaxMembers; j++ {
			row.contributions[i*models.MaxMembers+j] = c.Contributions[i][j]
		}
	}
	return row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCircle(row rowScanner) (*models.Circle, error) {
	var r circleRow
	err := row.Scan(
		&r.id, &r.creator, &r.name, &r.contributionAmount, &r.periodLength, &r.minScore,
		&r.status, &r.currentRound, &r.memberCount, &r.createdAt, &r.roundStartedAt,
		&r.totalPool, &r.roundComplete,
		pq.Array(&r.members), pq.Array(&r.scores), pq.Array(&r.payoutOrder),
		pq.Array(&r.contributions), pq.Array(&r.claimed),
	)
	if err != nil {
		return nil, err
	}

	circleID, err := id.ParseCircleID(r.id)
	if err != nil {
		return nil, fmt.Errorf("corrupt circle id %q", r.id)
	}
	status := models.CircleStatus(r.status)
	if !status.Valid() {
		return nil, fmt.Errorf("corrupt circle status %q", r.status)
	}
	if len(r.members) != models.MaxMembers || len(r.scores) != models.MaxMembers ||
		len(r.payoutOrder) != models.MaxMembers || len(r.claimed) != models.MaxMembers ||
		len(r.contributions) != models.MaxMembers*models.MaxMembers {
		return nil, fmt.Errorf("corrupt circle arrays for %s", r.id)
	}

	c := &models.Circle{
		ID:                 circleID,
		Creator:            id.Principal(r.creator),
		Name:               r.name,
		ContributionAmount: r.contributionAmount,
		PeriodLength:       r.periodLength,
		MinScore:           uint8(r.minScore),
		Status:             status,
		CurrentRound:       uint8(r.currentRound),
		MemberCount:        uint8(r.memberCount),
		CreatedAt:          r.createdAt,
		RoundStartedAt:     r.roundStartedAt,
		TotalPool:          r.totalPool,
		RoundComplete:      r.roundComplete,
	}
	for i := 0; i < models.MaxMembers; i++ {
		c.Members[i] = id.Principal(r.members[i])
		c.Scores[i] = uint8(r.scores[i])
		c.PayoutOrder[i] = uint8(r.payoutOrder[i])
		c.Claimed[i] = r.claimed[i]
		for j := 0; j < models.MaxMembers; j++ {
			c.Contributions[i][j] = r.contributions[i*models.MaxMembers+j]
		}
	}
	return c, nil
}
