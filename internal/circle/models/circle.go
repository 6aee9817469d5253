package models

import (
	"slices"
	"time"

	id "faircircle/pkg/domain"
)

// Capacity constants. Fixed-size arrays keep the storage footprint of a
// circle constant regardless of enrollment; slots at index >= MemberCount
// are logically absent and must never be read.
const (
	// MaxMembers is the roster capacity and also the maximum round count.
	MaxMembers = 10

	// MinMembers is the activation quorum.
	MinMembers = 3

	// MaxNameLen bounds the human-readable circle name.
	MaxNameLen = 32

	// MaxScore is the upper bound of the fair-score scale.
	MaxScore = 100
)

// Circle is the aggregate root for a rotating-savings circle.
//
// Invariants:
//   - ContributionAmount, PeriodLength, and MinScore are fixed at creation
//   - Member identities are unique; membership is closed once the circle
//     leaves forming; the creator is always member index 0
//   - PayoutOrder is a permutation of [0, MemberCount) computed exactly once
//     at activation and never recomputed, even if scores change afterwards
//   - Contributions[m][r] transitions false -> true at most once
//   - RoundComplete is true iff every enrolled member has contributed for
//     the current round
//   - TotalPool equals the sum of recorded, unpaid contributions
//
// Mutations follow the Can*/Apply* pair convention: Can* validates without
// touching state, Apply* performs the (infallible) mutation. Services run
// both inside the store's per-record Execute callback, with the external
// ledger transfer between them, so a failed transfer leaves the aggregate
// byte-for-byte unchanged.
type Circle struct {
	ID                 id.CircleID  `json:"id"`
	Creator            id.Principal `json:"creator"`
	Name               string       `json:"name"`
	ContributionAmount int64        `json:"contribution_amount"`
	PeriodLength       int64        `json:"period_length"` // seconds, advisory only
	MinScore           uint8        `json:"min_score"`
	Status             CircleStatus `json:"status"`
	CurrentRound       uint8        `json:"current_round"` // 1-based, 0 before activation
	MemberCount        uint8        `json:"member_count"`
	CreatedAt          time.Time    `json:"created_at"`
	RoundStartedAt     time.Time    `json:"round_started_at"`
	TotalPool          int64        `json:"total_pool"`
	RoundComplete      bool         `json:"round_complete"`

	Members       [MaxMembers]id.Principal     `json:"members"`
	Scores        [MaxMembers]uint8            `json:"scores"`
	PayoutOrder   [MaxMembers]uint8            `json:"payout_order"`
	Contributions [MaxMembers][MaxMembers]bool `json:"contributions"` // [member][round-1]
	Claimed       [MaxMembers]bool             `json:"claimed"`
}

// NewCircle validates creation constraints and returns a forming circle with
// the creator enrolled at index 0. The creator's score is recorded as given
// but is not validated against minScore; only joining members are gated.
func NewCircle(circleID id.CircleID, creator id.Principal, name string, contributionAmount, periodLength int64, minScore, creatorScore uint8, now time.Time) (*Circle, error) {
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	if contributionAmount <= 0 {
		return nil, ErrInvalidContributionAmount
	}
	if periodLength <= 0 {
		return nil, ErrInvalidPeriodLength
	}

	c := &Circle{
		ID:                 circleID,
		Creator:            creator,
		Name:               name,
		ContributionAmount: contributionAmount,
		PeriodLength:       periodLength,
		MinScore:           minScore,
		Status:             StatusForming,
		MemberCount:        1,
		CreatedAt:          now,
	}
	c.Members[0] = creator
	c.Scores[0] = creatorScore
	return c, nil
}

// memberIndex returns the roster index of p, or -1. Linear scan over the
// enrolled prefix only; empty slots are never read.
func (c *Circle) memberIndex(p id.Principal) int {
	for i := 0; i < int(c.MemberCount); i++ {
		if c.Members[i] == p {
			return i
		}
	}
	return -1
}

// IsMember reports whether p is enrolled.
func (c *Circle) IsMember(p id.Principal) bool {
	return c.memberIndex(p) >= 0
}

// MemberScore returns the stored score for an enrolled member.
func (c *Circle) MemberScore(p id.Principal) (uint8, error) {
	idx := c.memberIndex(p)
	if idx < 0 {
		return 0, ErrNotMember
	}
	return c.Scores[idx], nil
}

// CanJoin checks the admission rules for a prospective member.
func (c *Circle) CanJoin(member id.Principal, score uint8) error {
	if c.Status != StatusForming {
		return ErrCircleNotForming
	}
	if c.MemberCount >= MaxMembers {
		return ErrCircleFull
	}
	if score < c.MinScore {
		return ErrInsufficientScore
	}
	if c.IsMember(member) {
		return ErrAlreadyJoined
	}
	return nil
}

// ApplyJoin appends member to the roster. Call CanJoin first.
func (c *Circle) ApplyJoin(member id.Principal, score uint8) {
	i := c.MemberCount
	c.Members[i] = member
	c.Scores[i] = score
	c.Contributions[i] = [MaxMembers]bool{}
	c.Claimed[i] = false
	c.MemberCount++
}

// CanActivate checks whether caller may start the circle.
func (c *Circle) CanActivate(caller id.Principal) error {
	if c.Status != StatusForming {
		return ErrCircleNotForming
	}
	if caller != c.Creator {
		return ErrUnauthorized
	}
	if c.MemberCount < MinMembers {
		return ErrNotEnoughMembers
	}
	return nil
}

// ApplyActivation freezes membership, computes the payout order, and opens
// round 1. The order is a stable descending sort of member indices by score:
// ties keep join order. It is never recomputed afterwards.
func (c *Circle) ApplyActivation(now time.Time) {
	order := make([]uint8, c.MemberCount)
	for i := range order {
		order[i] = uint8(i)
	}
	slices.SortStableFunc(order, func(a, b uint8) int {
		return int(c.Scores[b]) - int(c.Scores[a])
	})
	copy(c.PayoutOrder[:], order)

	c.Status = StatusActive
	c.CurrentRound = 1
	c.RoundStartedAt = now
}

// recipientIndex resolves the roster index of the current round's payout
// recipient: round r pays the member at payout-order position r-1.
func (c *Circle) recipientIndex() (int, error) {
	if c.CurrentRound < 1 || c.CurrentRound > c.MemberCount {
		return 0, ErrInvalidRound
	}
	return int(c.PayoutOrder[c.CurrentRound-1]), nil
}

// PayoutRecipient returns the principal entitled to the current round's
// pool. Only valid while the circle is active.
func (c *Circle) PayoutRecipient() (id.Principal, error) {
	if c.Status != StatusActive {
		return id.NilPrincipal, ErrCircleNotActive
	}
	idx, err := c.recipientIndex()
	if err != nil {
		return id.NilPrincipal, err
	}
	return c.Members[idx], nil
}

// CanContribute checks the contribution preconditions for member. Rounds
// are serialized: CurrentRound only advances on claim, so a contribution
// for round r+1 cannot be recorded while round r is unclaimed.
func (c *Circle) CanContribute(member id.Principal) error {
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	if c.CurrentRound < 1 || c.CurrentRound > c.MemberCount {
		return ErrInvalidRound
	}
	idx := c.memberIndex(member)
	if idx < 0 {
		return ErrNotMember
	}
	if c.Contributions[idx][c.CurrentRound-1] {
		return ErrAlreadyContributed
	}
	return nil
}

// ApplyContribution records member's contribution for the current round and
// recomputes the round-complete flag. Call CanContribute first; the ledger
// transfer must already have succeeded.
func (c *Circle) ApplyContribution(member id.Principal) {
	idx := c.memberIndex(member)
	c.Contributions[idx][c.CurrentRound-1] = true
	c.TotalPool += c.ContributionAmount

	complete := true
	for i := 0; i < int(c.MemberCount); i++ {
		if !c.Contributions[i][c.CurrentRound-1] {
			complete = false
			break
		}
	}
	c.RoundComplete = complete
}

// PayoutAmount is the size of one round's payout: every member's
// contribution, the recipient's own included.
func (c *Circle) PayoutAmount() int64 {
	return c.ContributionAmount * int64(c.MemberCount)
}

// CanClaim checks the claim preconditions for caller.
func (c *Circle) CanClaim(caller id.Principal) error {
	if c.Status != StatusActive {
		return ErrCircleNotActive
	}
	idx, err := c.recipientIndex()
	if err != nil {
		return err
	}
	if !c.RoundComplete {
		return ErrRoundNotComplete
	}
	if c.Members[idx] != caller {
		return ErrNotPayoutRecipient
	}
	if c.Claimed[idx] {
		return ErrAlreadyClaimed
	}
	return nil
}

// ApplyClaim pays out the current round and advances the circle: the next
// round opens, or the circle completes after the final round. Call CanClaim
// first; the ledger transfer must already have succeeded.
func (c *Circle) ApplyClaim(now time.Time) {
	idx, _ := c.recipientIndex()
	c.Claimed[idx] = true
	c.TotalPool -= c.PayoutAmount()
	c.RoundComplete = false

	if c.CurrentRound == c.MemberCount {
		c.Status = StatusCompleted
		return
	}
	c.CurrentRound++
	c.RoundStartedAt = now
}

// CanUpdateScore checks that authority is the creator and member is
// enrolled.
func (c *Circle) CanUpdateScore(authority, member id.Principal) error {
	if authority != c.Creator {
		return ErrUnauthorized
	}
	if !c.IsMember(member) {
		return ErrNotMember
	}
	return nil
}

// ApplyScoreUpdate overwrites the stored score in place. The payout order
// is frozen at activation and is deliberately not recomputed here.
func (c *Circle) ApplyScoreUpdate(member id.Principal, newScore uint8) {
	idx := c.memberIndex(member)
	c.Scores[idx] = newScore
}

// CanCancel checks that caller may cancel the circle.
func (c *Circle) CanCancel(caller id.Principal) error {
	if caller != c.Creator {
		return ErrUnauthorized
	}
	if !c.Status.CanTransitionTo(StatusCancelled) {
		return ErrCircleSettled
	}
	return nil
}

// ApplyCancellation transitions the circle to its cancelled terminal state.
// Escrowed funds are not moved here; refunds are settled out of band.
func (c *Circle) ApplyCancellation() {
	c.Status = StatusCancelled
}

// Clone returns a deep copy. Arrays are value types, so a shallow copy of
// the struct is already deep; the method exists to make call sites explicit.
func (c *Circle) Clone() *Circle {
	clone := *c
	return &clone
}
