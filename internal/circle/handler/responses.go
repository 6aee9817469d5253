package handler

import (
	"time"

	"faircircle/internal/circle/models"
)

// MemberResponse is one enrolled member in a circle response.
type MemberResponse struct {
	Principal   string `json:"principal"`
	Score       uint8  `json:"score"`
	Contributed bool   `json:"contributed_this_round"`
	Claimed     bool   `json:"claimed"`
}

// CircleResponse is the JSON representation of a circle. The fixed-capacity
// arrays of the aggregate are trimmed to the enrolled prefix so clients
// never see empty slots.
type CircleResponse struct {
	ID                 string           `json:"id"`
	Creator            string           `json:"creator"`
	Name               string           `json:"name"`
	ContributionAmount int64            `json:"contribution_amount"`
	PeriodLength       int64            `json:"period_length"`
	MinScore           uint8            `json:"min_score"`
	Status             string           `json:"status"`
	CurrentRound       uint8            `json:"current_round"`
	MemberCount        uint8            `json:"member_count"`
	TotalPool          int64            `json:"total_pool"`
	RoundComplete      bool             `json:"round_complete"`
	PayoutAmount       int64            `json:"payout_amount"`
	CreatedAt          time.Time        `json:"created_at"`
	RoundStartedAt     *time.Time       `json:"round_started_at,omitempty"`
	Members            []MemberResponse `json:"members"`
	PayoutOrder        []string         `json:"payout_order,omitempty"`
	NextRecipient      string           `json:"next_recipient,omitempty"`
}

// FromCircle converts the aggregate into its API shape.
func FromCircle(c *models.Circle) CircleResponse {
	resp := CircleResponse{
		ID:                 c.ID.String(),
		Creator:            c.Creator.String(),
		Name:               c.Name,
		ContributionAmount: c.ContributionAmount,
		PeriodLength:       c.PeriodLength,
		MinScore:           c.MinScore,
		Status:             string(c.Status),
		CurrentRound:       c.CurrentRound,
		MemberCount:        c.MemberCount,
		TotalPool:          c.TotalPool,
		RoundComplete:      c.RoundComplete,
		PayoutAmount:       c.PayoutAmount(),
		CreatedAt:          c.CreatedAt,
		Members:            make([]MemberResponse, 0, c.MemberCount),
	}

	if !c.RoundStartedAt.IsZero() {
		t := c.RoundStartedAt
		resp.RoundStartedAt = &t
	}

	for i := 0; i < int(c.MemberCount); i++ {
		m := MemberResponse{
			Principal: c.Members[i].String(),
			Score:     c.Scores[i],
			Claimed:   c.Claimed[i],
		}
		if c.Status == models.StatusActive && c.CurrentRound > 0 {
			m.Contributed = c.Contributions[i][c.CurrentRound-1]
		}
		resp.Members = append(resp.Members, m)
	}

	// Payout order only exists once the circle has activated.
	if c.Status == models.StatusActive || c.Status == models.StatusCompleted {
		resp.PayoutOrder = make([]string, 0, c.MemberCount)
		for i := 0; i < int(c.MemberCount); i++ {
			resp.PayoutOrder = append(resp.PayoutOrder, c.Members[c.PayoutOrder[i]].String())
		}
	}
	if recipient, err := c.PayoutRecipient(); err == nil {
		resp.NextRecipient = recipient.String()
	}

	return resp
}

// FromCircles converts a listing.
func FromCircles(circles []*models.Circle) []CircleResponse {
	out := make([]CircleResponse, 0, len(circles))
	for _, c := range circles {
		out = append(out, FromCircle(c))
	}
	return out
}
