package fairscore

import (
	"context"
	"sync"

	id "faircircle/pkg/domain"
)

// Static is an Oracle with fixed scores, for development and tests.
// Principals without an entry are unrated.
type Static struct {
	mu     sync.RWMutex
	scores map[id.Principal]uint8
}

// NewStatic constructs a static oracle from an initial score table.
func NewStatic(scores map[id.Principal]uint8) *Static {
	s := &Static{scores: make(map[id.Principal]uint8, len(scores))}
	for p, v := range scores {
		s.scores[p] = v
	}
	return s
}

// Set records or replaces a principal's score.
func (s *Static) Set(principal id.Principal, score uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[principal] = score
}

func (s *Static) Lookup(_ context.Context, principal id.Principal) (uint8, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[principal], nil
}

func (s *Static) Report(_ context.Context, principal id.Principal) (*Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value := s.scores[principal]
	return &Score{
		Principal: principal,
		Value:     value,
		Tier:      TierFor(value),
		Badges:    []string{},
	}, nil
}
