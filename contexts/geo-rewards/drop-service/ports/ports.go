package ports

import (
	"context"
	"time"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
)

const (
	StatusFilterAll = "all"

	DefaultDropListLimit   = 1000
	DefaultRewardListLimit = 500
)

// DropListFilter selects drops by exact status. Empty or "all" matches every status.
type DropListFilter struct {
	Status string
	Limit  int
}

func (f DropListFilter) MatchesAll() bool {
	return f.Status == "" || f.Status == StatusFilterAll
}

func (f DropListFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > DefaultDropListLimit {
		return DefaultDropListLimit
	}
	return f.Limit
}

// DropRepository owns drop records. Returned drops are snapshots.
type DropRepository interface {
	InsertDrop(ctx context.Context, input entities.NewDropInput) (entities.Drop, error)
	GetDrop(ctx context.Context, dropID string) (entities.Drop, error)
	ListDrops(ctx context.Context, filter DropListFilter) ([]entities.Drop, error)
	UpdateDrop(ctx context.Context, dropID string, patch entities.DropPatch) (entities.Drop, error)
	// DeleteDrop removes the drop and all of its claims atomically.
	DeleteDrop(ctx context.Context, dropID string) (bool, error)
	// ExpireDrops moves active drops past expires_at to expired and returns them.
	ExpireDrops(ctx context.Context, now time.Time) ([]entities.Drop, error)
}

// ClaimRepository owns claim records and the claim write boundary.
type ClaimRepository interface {
	// TryInsertClaimAndIncrement must insert the claim and bump the drop's
	// claimed_count as one atomic step, or fail with ErrAlreadyClaimed /
	// ErrDropNotFound without mutating anything.
	TryInsertClaimAndIncrement(ctx context.Context, input entities.NewClaimInput) (entities.Claim, error)
	ListClaimsByDrop(ctx context.Context, dropID string) ([]entities.Claim, error)
	ListRewardsByUser(ctx context.Context, userID string, limit int) ([]entities.Reward, error)
	Stats(ctx context.Context) (entities.Stats, error)
}

// Backend is one persistence implementation holding both record types.
type Backend interface {
	DropRepository
	ClaimRepository
	Name() string
	Ping(ctx context.Context) error
}

// Clock allows deterministic testing of expiry rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts record identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

const (
	EventDropCreated  = "drop_created"
	EventDropUpdated  = "drop_updated"
	EventDropDeleted  = "drop_deleted"
	EventClaimCreated = "claim_created"
)

// EventPublisher fans an event out to current observers without blocking.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, entityID string, payload any) error
}

const (
	ClaimOutcomeCreated        = "created"
	ClaimOutcomeAlreadyClaimed = "already_claimed"
	ClaimOutcomeTooFar         = "too_far"
	ClaimOutcomeDropNotFound   = "drop_not_found"
	ClaimOutcomeBadPayload     = "bad_payload"
	ClaimOutcomeError          = "error"
)

// ClaimMetrics records the outcome of every claim attempt.
type ClaimMetrics interface {
	ObserveClaimOutcome(outcome string)
}
