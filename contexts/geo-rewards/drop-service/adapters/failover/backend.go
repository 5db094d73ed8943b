package failover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

// FallbackRecorder counts writes that were diverted to the secondary backend.
type FallbackRecorder interface {
	ObserveBackendFallback(operation string)
}

// Backend serves everything from the primary store. When enabled, a write
// that fails with ErrBackendUnavailable is retried once on the secondary
// store, and every diversion is logged and counted. Drops that only exist on
// the secondary stay reachable: lookups that miss on the primary are
// answered by the secondary. A diverted write that the secondary cannot
// place reports the primary's failure, not a missing drop.
type Backend struct {
	primary   ports.Backend
	secondary ports.Backend
	enabled   bool
	recorder  FallbackRecorder
	logger    *slog.Logger
}

func NewBackend(
	primary ports.Backend,
	secondary ports.Backend,
	enabled bool,
	recorder FallbackRecorder,
	logger *slog.Logger,
) *Backend {
	return &Backend{
		primary:   primary,
		secondary: secondary,
		enabled:   enabled && secondary != nil,
		recorder:  recorder,
		logger:    application.ResolveLogger(logger),
	}
}

func (b *Backend) Name() string {
	return b.primary.Name()
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.primary.Ping(ctx)
}

func (b *Backend) InsertDrop(ctx context.Context, input entities.NewDropInput) (entities.Drop, error) {
	drop, err := b.primary.InsertDrop(ctx, input)
	if !b.shouldFallback(err) {
		return drop, err
	}
	b.noteFallback("insert_drop", err)
	return b.secondary.InsertDrop(ctx, input)
}

func (b *Backend) GetDrop(ctx context.Context, dropID string) (entities.Drop, error) {
	drop, err := b.primary.GetDrop(ctx, dropID)
	if !b.enabled || !errors.Is(err, domainerrors.ErrDropNotFound) {
		return drop, err
	}
	if diverted, secondaryErr := b.secondary.GetDrop(ctx, dropID); secondaryErr == nil {
		return diverted, nil
	}
	return drop, err
}

func (b *Backend) ListDrops(ctx context.Context, filter ports.DropListFilter) ([]entities.Drop, error) {
	return b.primary.ListDrops(ctx, filter)
}

func (b *Backend) UpdateDrop(ctx context.Context, dropID string, patch entities.DropPatch) (entities.Drop, error) {
	drop, err := b.primary.UpdateDrop(ctx, dropID, patch)
	switch {
	case b.shouldFallback(err):
		b.noteFallback("update_drop", err)
		diverted, secondaryErr := b.secondary.UpdateDrop(ctx, dropID, patch)
		if errors.Is(secondaryErr, domainerrors.ErrDropNotFound) {
			return entities.Drop{}, err
		}
		return diverted, secondaryErr
	case b.missedOnPrimary(err):
		if diverted, secondaryErr := b.secondary.UpdateDrop(ctx, dropID, patch); !errors.Is(secondaryErr, domainerrors.ErrDropNotFound) {
			return diverted, secondaryErr
		}
	}
	return drop, err
}

func (b *Backend) DeleteDrop(ctx context.Context, dropID string) (bool, error) {
	deleted, err := b.primary.DeleteDrop(ctx, dropID)
	switch {
	case b.shouldFallback(err):
		b.noteFallback("delete_drop", err)
		divertedDeleted, secondaryErr := b.secondary.DeleteDrop(ctx, dropID)
		if secondaryErr == nil && !divertedDeleted {
			return false, err
		}
		return divertedDeleted, secondaryErr
	case b.enabled && err == nil && !deleted:
		return b.secondary.DeleteDrop(ctx, dropID)
	}
	return deleted, err
}

func (b *Backend) ExpireDrops(ctx context.Context, now time.Time) ([]entities.Drop, error) {
	return b.primary.ExpireDrops(ctx, now)
}

func (b *Backend) TryInsertClaimAndIncrement(ctx context.Context, input entities.NewClaimInput) (entities.Claim, error) {
	claim, err := b.primary.TryInsertClaimAndIncrement(ctx, input)
	switch {
	case b.shouldFallback(err):
		b.noteFallback("claim_drop", err)
		diverted, secondaryErr := b.secondary.TryInsertClaimAndIncrement(ctx, input)
		if errors.Is(secondaryErr, domainerrors.ErrDropNotFound) {
			return entities.Claim{}, err
		}
		return diverted, secondaryErr
	case b.missedOnPrimary(err):
		if diverted, secondaryErr := b.secondary.TryInsertClaimAndIncrement(ctx, input); !errors.Is(secondaryErr, domainerrors.ErrDropNotFound) {
			return diverted, secondaryErr
		}
	}
	return claim, err
}

func (b *Backend) ListClaimsByDrop(ctx context.Context, dropID string) ([]entities.Claim, error) {
	claims, err := b.primary.ListClaimsByDrop(ctx, dropID)
	if err != nil || len(claims) > 0 || !b.enabled {
		return claims, err
	}
	if diverted, secondaryErr := b.secondary.ListClaimsByDrop(ctx, dropID); secondaryErr == nil && len(diverted) > 0 {
		return diverted, nil
	}
	return claims, nil
}

func (b *Backend) ListRewardsByUser(ctx context.Context, userID string, limit int) ([]entities.Reward, error) {
	return b.primary.ListRewardsByUser(ctx, userID, limit)
}

func (b *Backend) Stats(ctx context.Context) (entities.Stats, error) {
	return b.primary.Stats(ctx)
}

func (b *Backend) shouldFallback(err error) bool {
	return b.enabled && errors.Is(err, domainerrors.ErrBackendUnavailable)
}

func (b *Backend) missedOnPrimary(err error) bool {
	return b.enabled && errors.Is(err, domainerrors.ErrDropNotFound)
}

func (b *Backend) noteFallback(operation string, cause error) {
	b.logger.Warn("write diverted to secondary backend",
		"event", "backend_operation_fallback",
		"module", "geo-rewards/drop-service",
		"layer", "adapter",
		"operation", operation,
		"primary", b.primary.Name(),
		"secondary", b.secondary.Name(),
		"error", cause.Error(),
	)
	if b.recorder != nil {
		b.recorder.ObserveBackendFallback(operation)
	}
}
