// Package fairscore resolves member reputation scores from the FairScale
// scoring service. Circles use the score to gate admission and to order
// payouts; the service is the single source of truth at join time.
package fairscore

//go:generate mockgen -source=oracle.go -destination=mocks/mocks.go -package=mocks Oracle

import (
	"context"

	id "faircircle/pkg/domain"
)

// Tier buckets a score into a reputation band.
type Tier string

const (
	TierUnrated  Tier = "unrated"
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// TierFor returns the reputation band for a score.
func TierFor(score uint8) Tier {
	switch {
	case score >= 80:
		return TierPlatinum
	case score >= 60:
		return TierGold
	case score >= 40:
		return TierSilver
	case score >= 20:
		return TierBronze
	default:
		return TierUnrated
	}
}

// Score is a full reputation report for a principal.
type Score struct {
	Principal   id.Principal `json:"principal"`
	Value       uint8        `json:"fair_score"`
	Tier        Tier         `json:"tier"`
	Badges      []string     `json:"badges"`
	LastUpdated string       `json:"last_updated,omitempty"`
}

// Oracle looks up reputation scores.
//
// Lookup returns the lightweight numeric score; Report returns the full
// tier-and-badges view. Principals unknown to the scoring service resolve
// to a zero score in the unrated tier, not an error.
type Oracle interface {
	Lookup(ctx context.Context, principal id.Principal) (uint8, error)
	Report(ctx context.Context, principal id.Principal) (*Score, error)
}
