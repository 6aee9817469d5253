package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"faircircle/internal/circle/metrics"
	"faircircle/internal/circle/models"
	"faircircle/internal/circle/store"
	"faircircle/internal/fairscore"
	"faircircle/internal/ledger"
	dErrors "faircircle/pkg/domain-errors"
	id "faircircle/pkg/domain"
	audit "faircircle/pkg/platform/audit"
	"faircircle/pkg/platform/sentinel"
	"faircircle/pkg/requestcontext"
)

// ErrInsufficientFunds surfaces a failed contribution or payout transfer.
var ErrInsufficientFunds = dErrors.New(dErrors.CodeConflict, "insufficient funds to complete the transfer")

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates circle lifecycle operations. All mutations go through
// the store's Execute so validation, ledger transfers, and state changes
// apply atomically per circle.
type Service struct {
	circles        store.CircleStore
	funds          ledger.Ledger
	oracle         fairscore.Oracle
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(circles store.CircleStore, funds ledger.Ledger, oracle fairscore.Oracle, opts ...Option) *Service {
	s := &Service{
		circles: circles,
		funds:   funds,
		oracle:  oracle,
		tracer:  otel.Tracer("faircircle/circle"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCircleRequest carries the creator-supplied circle parameters.
type CreateCircleRequest struct {
	Name               string
	ContributionAmount int64
	PeriodLength       int64
	MinScore           uint8
}

// Create registers a new forming circle with the caller as creator and sole
// member. The creator's score is resolved from the oracle so the payout
// ordering uses the same source of truth as later joins.
func (s *Service) Create(ctx context.Context, creator id.Principal, req CreateCircleRequest) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Create")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)

	creatorScore, err := s.oracle.Lookup(ctx, creator)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve creator score")
	}
	creatorScore = clampScore(creatorScore)

	circle, err := models.NewCircle(
		id.NewCircleID(), creator, req.Name,
		req.ContributionAmount, req.PeriodLength,
		req.MinScore, creatorScore,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("circle.id", circle.ID.String()))

	if err := s.circles.CreateIfCreatorAvailable(ctx, circle); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "you already have a circle")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create circle")
	}

	s.logAudit(ctx, circle.ID, creator, audit.Event{
		Action:  string(audit.EventCircleCreated),
		Subject: circle.Name,
		Amount:  circle.ContributionAmount,
	})
	if s.metrics != nil {
		s.metrics.CirclesCreated.Inc()
	}
	return circle, nil
}

// Get returns a circle by ID.
func (s *Service) Get(ctx context.Context, circleID id.CircleID) (*models.Circle, error) {
	circle, err := s.circles.FindByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "circle not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load circle")
	}
	return circle, nil
}

// List returns all circles.
func (s *Service) List(ctx context.Context) ([]*models.Circle, error) {
	circles, err := s.circles.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list circles")
	}
	return circles, nil
}

// Join admits the caller into a forming circle. The score is resolved from
// the oracle before the admission check; a stale roster read cannot admit an
// eleventh member because the check re-runs under the record lock.
func (s *Service) Join(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Join",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()

	score, err := s.oracle.Lookup(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve fair score")
	}
	score = clampScore(score)

	circle, err := s.execute(ctx, circleID, func(_ context.Context, c *models.Circle) error {
		if err := c.CanJoin(caller, score); err != nil {
			return err
		}
		c.ApplyJoin(caller, score)
		return nil
	})
	if err != nil {
		s.logAudit(ctx, circleID, caller, audit.Event{
			Action:   string(audit.EventJoinRejected),
			Decision: "rejected",
			Reason:   err.Error(),
		})
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action: string(audit.EventMemberJoined),
	})
	if s.metrics != nil {
		s.metrics.MembersJoined.Inc()
	}
	return circle, nil
}

// Activate freezes the roster and computes the payout order. Creator only.
func (s *Service) Activate(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Activate",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()

	circle, err := s.execute(ctx, circleID, func(_ context.Context, c *models.Circle) error {
		if err := c.CanActivate(caller); err != nil {
			return err
		}
		c.ApplyActivation(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action: string(audit.EventCircleActivated),
		Round:  circle.CurrentRound,
	})
	if s.metrics != nil {
		s.metrics.CirclesActivated.Inc()
	}
	return circle, nil
}

// Contribute records the caller's contribution for the current round. The
// ledger transfer runs inside the record lock, after validation and before
// the state mutation, so a failed transfer leaves the matrix untouched.
func (s *Service) Contribute(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Contribute",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()
	start := time.Now()

	var amount int64
	circle, err := s.execute(ctx, circleID, func(execCtx context.Context, c *models.Circle) error {
		if err := c.CanContribute(caller); err != nil {
			return err
		}
		amount = c.ContributionAmount
		if err := s.transfer(execCtx, ledger.MemberAccount(caller), ledger.EscrowAccount(c.ID), amount); err != nil {
			return err
		}
		c.ApplyContribution(caller)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action: string(audit.EventContributionRecorded),
		Amount: amount,
		Round:  circle.CurrentRound,
	})
	if s.metrics != nil {
		s.metrics.ContributionsMade.Inc()
		s.metrics.ObserveContribution(start)
	}
	return circle, nil
}

// Claim pays out the current round to the caller, who must be this round's
// recipient. Completing the final round settles the circle.
func (s *Service) Claim(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Claim",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()
	start := time.Now()

	var amount int64
	var claimedRound uint8
	circle, err := s.execute(ctx, circleID, func(execCtx context.Context, c *models.Circle) error {
		if err := c.CanClaim(caller); err != nil {
			return err
		}
		amount = c.PayoutAmount()
		claimedRound = c.CurrentRound
		if err := s.transfer(execCtx, ledger.EscrowAccount(c.ID), ledger.MemberAccount(caller), amount); err != nil {
			return err
		}
		c.ApplyClaim(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action: string(audit.EventPayoutClaimed),
		Amount: amount,
		Round:  claimedRound,
	})
	if s.metrics != nil {
		s.metrics.PayoutsClaimed.Inc()
		s.metrics.ObserveClaim(start)
	}
	if circle.Status == models.StatusCompleted {
		s.logAudit(ctx, circleID, caller, audit.Event{
			Action: string(audit.EventCircleCompleted),
		})
		if s.metrics != nil {
			s.metrics.CirclesCompleted.Inc()
		}
	}
	return circle, nil
}

// UpdateScore overrides a member's stored score. Creator only, and never
// reorders payouts once the circle is active.
func (s *Service) UpdateScore(ctx context.Context, circleID id.CircleID, caller, member id.Principal, newScore uint8) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.UpdateScore",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()

	if newScore > models.MaxScore {
		return nil, dErrors.New(dErrors.CodeBadRequest, "score must be between 0 and 100")
	}

	circle, err := s.execute(ctx, circleID, func(_ context.Context, c *models.Circle) error {
		if err := c.CanUpdateScore(caller, member); err != nil {
			return err
		}
		c.ApplyScoreUpdate(member, newScore)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action:  string(audit.EventScoreUpdated),
		Subject: member.String(),
	})
	return circle, nil
}

// Cancel terminates a forming or active circle. Creator only; escrowed
// funds are settled out of band.
func (s *Service) Cancel(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error) {
	ctx, span := s.tracer.Start(ctx, "circle.Cancel",
		trace.WithAttributes(attribute.String("circle.id", circleID.String())))
	defer span.End()

	circle, err := s.execute(ctx, circleID, func(_ context.Context, c *models.Circle) error {
		if err := c.CanCancel(caller); err != nil {
			return err
		}
		c.ApplyCancellation()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, circleID, caller, audit.Event{
		Action: string(audit.EventCircleCancelled),
	})
	if s.metrics != nil {
		s.metrics.CirclesCancelled.Inc()
	}
	return circle, nil
}

func (s *Service) execute(ctx context.Context, circleID id.CircleID, fn func(ctx context.Context, c *models.Circle) error) (*models.Circle, error) {
	circle, err := s.circles.Execute(ctx, circleID, fn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "circle not found")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "circle operation failed")
	}
	return circle, nil
}

// clampScore caps oracle-sourced scores at the model ceiling so an
// out-of-range oracle response is never stored.
func clampScore(score uint8) uint8 {
	if score > models.MaxScore {
		return models.MaxScore
	}
	return score
}

func (s *Service) transfer(ctx context.Context, from, to ledger.Account, amount int64) error {
	err := s.funds.Transfer(ctx, from, to, amount)
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrInsufficientFunds) {
		return ErrInsufficientFunds
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
}

func (s *Service) logAudit(ctx context.Context, circleID id.CircleID, actor id.Principal, event audit.Event) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action,
			"circle_id", circleID.String(),
			"actor", actor.String(),
			"log_type", "audit")
	}
	if s.auditPublisher == nil {
		return
	}
	event.CircleID = circleID
	event.Actor = actor
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.Device(ctx)
	_ = s.auditPublisher.Emit(ctx, event)
}
