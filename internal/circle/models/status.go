package models

// CircleStatus is the lifecycle status of a circle.
type CircleStatus string

const (
	// StatusForming accepts new members; no funds have moved.
	StatusForming CircleStatus = "forming"

	// StatusActive runs contribution/claim rounds; membership is closed
	// and the payout order is frozen.
	StatusActive CircleStatus = "active"

	// StatusCompleted is terminal: every round has been paid out.
	StatusCompleted CircleStatus = "completed"

	// StatusCancelled is terminal: the circle was cancelled by its creator
	// before completing.
	StatusCancelled CircleStatus = "cancelled"
)

// CanTransitionTo reports whether the status may advance to target.
// Status advances monotonically except for the cancellation transition,
// which is reachable from forming and active.
func (s CircleStatus) CanTransitionTo(target CircleStatus) bool {
	switch s {
	case StatusForming:
		return target == StatusActive || target == StatusCancelled
	case StatusActive:
		return target == StatusCompleted || target == StatusCancelled
	default:
		return false
	}
}

// Terminal reports whether no further operations are valid.
func (s CircleStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value. Used when loading from
// storage.
func (s CircleStatus) Valid() bool {
	switch s {
	case StatusForming, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
