// Package store persists circle aggregates.
//
// Implementations return pkg/platform/sentinel errors for infrastructure
// facts (not found, key already taken); the service layer translates them
// into domain errors.
package store

import (
	"context"

	"faircircle/internal/circle/models"
	id "faircircle/pkg/domain"
)

// CircleStore is the durable storage collaborator for circle aggregates.
//
// Execute is the per-record serialization point: it loads the aggregate,
// holds the record's lock (a mutex in memory, SELECT ... FOR UPDATE in
// postgres) while fn runs, and persists the mutated aggregate only when fn
// returns nil. No two Execute calls for the same circle ever interleave, so
// fn always observes a fully-applied prior state. fn receives a context
// that carries the store's transaction where one exists, letting the
// postgres ledger join it.
type CircleStore interface {
	// CreateIfCreatorAvailable persists a new circle. Each creator owns at
	// most one circle (the escrow account is derived from the circle key);
	// a second create returns sentinel.ErrAlreadyUsed.
	CreateIfCreatorAvailable(ctx context.Context, circle *models.Circle) error

	// FindByID loads a circle, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, circleID id.CircleID) (*models.Circle, error)

	// List returns all circles, newest first.
	List(ctx context.Context) ([]*models.Circle, error)

	// Execute runs fn against the loaded aggregate under the record lock
	// and commits the mutation iff fn returns nil. Returns the committed
	// aggregate.
	Execute(ctx context.Context, circleID id.CircleID, fn func(ctx context.Context, c *models.Circle) error) (*models.Circle, error)
}
