package entities

import (
	"strings"
	"time"

	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
)

type Claim struct {
	ClaimID   string
	DropID    string
	UserID    string
	Value     *float64
	TxRef     string
	ClaimedAt time.Time
}

func (c Claim) Clone() Claim {
	out := c
	if c.Value != nil {
		value := *c.Value
		out.Value = &value
	}
	return out
}

type NewClaimInput struct {
	DropID string
	UserID string
	Value  *float64
	TxRef  string
}

func NewClaim(claimID string, input NewClaimInput, claimedAt time.Time) (Claim, error) {
	if strings.TrimSpace(claimID) == "" ||
		strings.TrimSpace(input.DropID) == "" ||
		strings.TrimSpace(input.UserID) == "" {
		return Claim{}, domainerrors.ErrInvalidClaimPayload
	}
	if input.Value != nil && !finite(*input.Value) {
		return Claim{}, domainerrors.ErrInvalidClaimPayload
	}

	claim := Claim{
		ClaimID:   claimID,
		DropID:    input.DropID,
		UserID:    input.UserID,
		TxRef:     strings.TrimSpace(input.TxRef),
		ClaimedAt: claimedAt.UTC(),
	}
	if input.Value != nil {
		value := *input.Value
		claim.Value = &value
	}
	return claim, nil
}

// Reward is a claim joined with a snapshot of its drop. Drop is nil when the
// drop no longer exists.
type Reward struct {
	Claim Claim
	Drop  *Drop
}

type Stats struct {
	TotalDrops  int
	TotalClaims int
	LastClaim   *Claim
}
