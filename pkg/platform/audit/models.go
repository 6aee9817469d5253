package audit

import (
	"context"
	"time"

	id "faircircle/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryFinancial covers events that move or commit member funds.
	// These require tamper-proof storage and long retention.
	CategoryFinancial EventCategory = "financial"

	// CategorySecurity covers events relevant to abuse monitoring.
	// Examples: rejected admissions, authority score overrides.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled with short retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key circle actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CircleID  id.CircleID
	Actor     id.Principal
	Subject   string
	Action    string
	Decision  string
	Reason    string
	Amount    int64
	Round     uint8
	RequestID string
	ClientIP  string
	Device    string
}

type AuditEvent string

const (
	// Lifecycle events
	EventCircleCreated   AuditEvent = "circle_created"
	EventCircleActivated AuditEvent = "circle_activated"
	EventCircleCompleted AuditEvent = "circle_completed"
	EventCircleCancelled AuditEvent = "circle_cancelled"

	// Membership events
	EventMemberJoined AuditEvent = "member_joined"
	EventJoinRejected AuditEvent = "join_rejected"
	EventScoreUpdated AuditEvent = "score_updated"

	// Fund movement events
	EventContributionRecorded AuditEvent = "contribution_recorded"
	EventPayoutClaimed        AuditEvent = "payout_claimed"
)

// eventCategories maps each audit event to its category.
// Financial: fund movement, tamper-proof storage and long retention.
// Security: abuse monitoring and alerting.
// Operations: routine activity, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventContributionRecorded: CategoryFinancial,
	EventPayoutClaimed:        CategoryFinancial,

	EventJoinRejected: CategorySecurity,
	EventScoreUpdated: CategorySecurity,

	EventCircleCreated:   CategoryOperations,
	EventCircleActivated: CategoryOperations,
	EventCircleCompleted: CategoryOperations,
	EventCircleCancelled: CategoryOperations,
	EventMemberJoined:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCircle(ctx context.Context, circleID id.CircleID) ([]Event, error)
}
