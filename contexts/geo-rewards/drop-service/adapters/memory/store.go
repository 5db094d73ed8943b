package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"

	"github.com/google/uuid"
)

const BackendName = "memory"

// Store is the volatile backend. It holds records for the lifetime of the
// process and guards every map with one RWMutex; the claim write path runs in
// a single exclusive critical section.
type Store struct {
	mu               sync.RWMutex
	drops            map[string]entities.Drop
	claims           map[string]entities.Claim
	claimsByDropUser map[claimKey]string
	insertSeq        map[string]uint64
	sequence         uint64
	clock            ports.Clock
	logger           *slog.Logger
}

type claimKey struct {
	dropID string
	userID string
}

func NewStore(logger *slog.Logger) *Store {
	return NewStoreWithClock(nil, logger)
}

// NewStoreWithClock is NewStore with a fixed time source, used by tests.
func NewStoreWithClock(clock ports.Clock, logger *slog.Logger) *Store {
	return &Store{
		drops:            make(map[string]entities.Drop),
		claims:           make(map[string]entities.Claim),
		claimsByDropUser: make(map[claimKey]string),
		insertSeq:        make(map[string]uint64),
		clock:            clock,
		logger:           application.ResolveLogger(logger),
	}
}

func (s *Store) Name() string {
	return BackendName
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) InsertDrop(ctx context.Context, input entities.NewDropInput) (entities.Drop, error) {
	dropID, err := s.NewID(ctx)
	if err != nil {
		return entities.Drop{}, err
	}
	drop, err := entities.NewDrop(dropID, input, s.Now())
	if err != nil {
		return entities.Drop{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.drops[drop.DropID] = drop
	s.sequence++
	s.insertSeq[drop.DropID] = s.sequence
	return drop.Clone(), nil
}

func (s *Store) GetDrop(_ context.Context, dropID string) (entities.Drop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drop, ok := s.drops[dropID]
	if !ok {
		return entities.Drop{}, domainerrors.ErrDropNotFound
	}
	return drop.Clone(), nil
}

func (s *Store) ListDrops(_ context.Context, filter ports.DropListFilter) ([]entities.Drop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Drop, 0, len(s.drops))
	for _, drop := range s.drops {
		if !filter.MatchesAll() && string(drop.Status) != filter.Status {
			continue
		}
		items = append(items, drop.Clone())
	}
	s.sortDropsNewestFirst(items)

	if limit := filter.EffectiveLimit(); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) UpdateDrop(_ context.Context, dropID string, patch entities.DropPatch) (entities.Drop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.drops[dropID]
	if !ok {
		return entities.Drop{}, domainerrors.ErrDropNotFound
	}
	next, err := entities.ApplyDropPatch(current, patch)
	if err != nil {
		return entities.Drop{}, err
	}
	s.drops[dropID] = next
	return next.Clone(), nil
}

func (s *Store) DeleteDrop(_ context.Context, dropID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drops[dropID]; !ok {
		return false, nil
	}
	delete(s.drops, dropID)
	delete(s.insertSeq, dropID)

	removed := 0
	for claimID, claim := range s.claims {
		if claim.DropID != dropID {
			continue
		}
		delete(s.claims, claimID)
		delete(s.insertSeq, claimID)
		delete(s.claimsByDropUser, claimKey{dropID: claim.DropID, userID: claim.UserID})
		removed++
	}

	s.logger.Debug("drop deleted with claims",
		"event", "memory_drop_deleted",
		"module", "geo-rewards/drop-service",
		"layer", "adapter",
		"drop_id", dropID,
		"claims_removed", removed,
	)
	return true, nil
}

func (s *Store) ExpireDrops(_ context.Context, now time.Time) ([]entities.Drop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []entities.Drop
	for dropID, drop := range s.drops {
		if !drop.ExpiredAt(now) {
			continue
		}
		drop.Status = entities.DropStatusExpired
		s.drops[dropID] = drop
		expired = append(expired, drop.Clone())
	}
	s.sortDropsNewestFirst(expired)
	return expired, nil
}

func (s *Store) TryInsertClaimAndIncrement(ctx context.Context, input entities.NewClaimInput) (entities.Claim, error) {
	claimID, err := s.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	claim, err := entities.NewClaim(claimID, input, s.Now())
	if err != nil {
		return entities.Claim{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Existence check, insert and counter bump share this critical section.
	drop, ok := s.drops[claim.DropID]
	if !ok {
		return entities.Claim{}, domainerrors.ErrDropNotFound
	}
	key := claimKey{dropID: claim.DropID, userID: claim.UserID}
	if _, exists := s.claimsByDropUser[key]; exists {
		return entities.Claim{}, domainerrors.ErrAlreadyClaimed
	}

	s.claims[claim.ClaimID] = claim
	s.claimsByDropUser[key] = claim.ClaimID
	s.sequence++
	s.insertSeq[claim.ClaimID] = s.sequence

	drop.ClaimedCount++
	s.drops[drop.DropID] = drop
	return claim.Clone(), nil
}

func (s *Store) ListClaimsByDrop(_ context.Context, dropID string) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Claim, 0)
	for _, claim := range s.claims {
		if claim.DropID == dropID {
			items = append(items, claim.Clone())
		}
	}
	s.sortClaimsNewestFirst(items)
	return items, nil
}

func (s *Store) ListRewardsByUser(_ context.Context, userID string, limit int) ([]entities.Reward, error) {
	if limit <= 0 {
		limit = ports.DefaultRewardListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := make([]entities.Claim, 0)
	for _, claim := range s.claims {
		if claim.UserID == userID {
			claims = append(claims, claim)
		}
	}
	s.sortClaimsNewestFirst(claims)
	if len(claims) > limit {
		claims = claims[:limit]
	}

	rewards := make([]entities.Reward, 0, len(claims))
	for _, claim := range claims {
		reward := entities.Reward{Claim: claim.Clone()}
		if drop, ok := s.drops[claim.DropID]; ok {
			snapshot := drop.Clone()
			reward.Drop = &snapshot
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func (s *Store) Stats(_ context.Context) (entities.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := entities.Stats{
		TotalDrops:  len(s.drops),
		TotalClaims: len(s.claims),
	}
	var last *entities.Claim
	for _, claim := range s.claims {
		if last == nil || s.claimNewer(claim, *last) {
			candidate := claim
			last = &candidate
		}
	}
	if last != nil {
		snapshot := last.Clone()
		stats.LastClaim = &snapshot
	}
	return stats, nil
}

func (s *Store) Now() time.Time {
	if s.clock != nil {
		return s.clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) sortDropsNewestFirst(items []entities.Drop) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return s.insertSeq[items[i].DropID] > s.insertSeq[items[j].DropID]
	})
}

func (s *Store) sortClaimsNewestFirst(items []entities.Claim) {
	sort.SliceStable(items, func(i, j int) bool {
		return s.claimNewer(items[i], items[j])
	})
}

func (s *Store) claimNewer(a entities.Claim, b entities.Claim) bool {
	if !a.ClaimedAt.Equal(b.ClaimedAt) {
		return a.ClaimedAt.After(b.ClaimedAt)
	}
	return s.insertSeq[a.ClaimID] > s.insertSeq[b.ClaimID]
}
