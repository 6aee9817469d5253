package store

import (
	"context"
	"sort"
	"sync"

	"faircircle/internal/circle/models"
	id "faircircle/pkg/domain"
	"faircircle/pkg/platform/sentinel"
)

// InMemory keeps circles in process memory. Suitable for tests and
// single-instance deployments without a database.
type InMemory struct {
	mu       sync.RWMutex
	circles  map[id.CircleID]*memoryRecord
	creators map[id.Principal]id.CircleID
}

// memoryRecord pairs a circle with its record lock. Execute holds the
// record lock for the whole validate-transfer-mutate step while leaving the
// map lock free for other circles.
type memoryRecord struct {
	mu     sync.Mutex
	circle *models.Circle
}

// NewInMemory creates an empty in-memory circle store.
func NewInMemory() *InMemory {
	return &InMemory{
		circles:  make(map[id.CircleID]*memoryRecord),
		creators: make(map[id.Principal]id.CircleID),
	}
}

func (s *InMemory) CreateIfCreatorAvailable(_ context.Context, circle *models.Circle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.creators[circle.Creator]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.circles[circle.ID]; exists {
		return sentinel.ErrConflict
	}

	s.circles[circle.ID] = &memoryRecord{circle: circle.Clone()}
	s.creators[circle.Creator] = circle.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, circleID id.CircleID) (*models.Circle, error) {
	s.mu.RLock()
	rec, ok := s.circles[circleID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.circle.Clone(), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Circle, error) {
	s.mu.RLock()
	records := make([]*memoryRecord, 0, len(s.circles))
	for _, rec := range s.circles {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	circles := make([]*models.Circle, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		circles = append(circles, rec.circle.Clone())
		rec.mu.Unlock()
	}
	sort.Slice(circles, func(i, j int) bool {
		return circles[i].CreatedAt.After(circles[j].CreatedAt)
	})
	return circles, nil
}

func (s *InMemory) Execute(ctx context.Context, circleID id.CircleID, fn func(ctx context.Context, c *models.Circle) error) (*models.Circle, error) {
	s.mu.RLock()
	rec, ok := s.circles[circleID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// fn works on a clone; the stored aggregate is replaced only on
	// success, so a failing fn leaves state untouched.
	working := rec.circle.Clone()
	if err := fn(ctx, working); err != nil {
		return nil, err
	}
	rec.circle = working
	return working.Clone(), nil
}
