package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"

	"golang.org/x/sync/errgroup"
)

type steppingClock struct {
	now atomic.Int64
}

func newSteppingClock(start time.Time) *steppingClock {
	c := &steppingClock{}
	c.now.Store(start.UnixNano())
	return c
}

func (c *steppingClock) Now() time.Time {
	return time.Unix(0, c.now.Add(int64(time.Millisecond))).UTC()
}

func insertTestDrop(t *testing.T, store *Store, title string) entities.Drop {
	t.Helper()
	lat, lng := 46.05, 14.51
	drop, err := store.InsertDrop(context.Background(), entities.NewDropInput{
		Title: title,
		Lat:   &lat,
		Lng:   &lng,
	})
	if err != nil {
		t.Fatalf("insert drop: %v", err)
	}
	return drop
}

func TestTryInsertClaimAndIncrementRejectsDuplicateUnderConcurrency(t *testing.T) {
	store := NewStore(nil)
	drop := insertTestDrop(t, store, "storm")

	var succeeded, rejected atomic.Int64
	var group errgroup.Group
	for i := 0; i < 64; i++ {
		group.Go(func() error {
			_, err := store.TryInsertClaimAndIncrement(context.Background(), entities.NewClaimInput{
				DropID: drop.DropID,
				UserID: "user-a",
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domainerrors.ErrAlreadyClaimed):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("unexpected claim error: %v", err)
	}

	if succeeded.Load() != 1 || rejected.Load() != 63 {
		t.Fatalf("expected 1 success and 63 rejections, got %d and %d", succeeded.Load(), rejected.Load())
	}
	stored, err := store.GetDrop(context.Background(), drop.DropID)
	if err != nil {
		t.Fatalf("get drop: %v", err)
	}
	if stored.ClaimedCount != 1 {
		t.Fatalf("expected claimed_count=1, got %d", stored.ClaimedCount)
	}
}

func TestClaimedCountMatchesClaimsAfterStorm(t *testing.T) {
	store := NewStore(nil)
	drop := insertTestDrop(t, store, "counter")

	var group errgroup.Group
	for i := 0; i < 200; i++ {
		userID := fmt.Sprintf("user-%d", i%50)
		group.Go(func() error {
			_, err := store.TryInsertClaimAndIncrement(context.Background(), entities.NewClaimInput{
				DropID: drop.DropID,
				UserID: userID,
			})
			if err != nil && !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("unexpected claim error: %v", err)
	}

	claims, err := store.ListClaimsByDrop(context.Background(), drop.DropID)
	if err != nil {
		t.Fatalf("list claims: %v", err)
	}
	stored, _ := store.GetDrop(context.Background(), drop.DropID)
	if len(claims) != 50 || stored.ClaimedCount != 50 {
		t.Fatalf("expected 50 claims and claimed_count=50, got %d and %d", len(claims), stored.ClaimedCount)
	}
}

func TestClaimUnknownDrop(t *testing.T) {
	store := NewStore(nil)
	_, err := store.TryInsertClaimAndIncrement(context.Background(), entities.NewClaimInput{
		DropID: "missing",
		UserID: "user-a",
	})
	if !errors.Is(err, domainerrors.ErrDropNotFound) {
		t.Fatalf("expected drop not found, got %v", err)
	}
}

func TestDeleteDropCascadesClaims(t *testing.T) {
	store := NewStore(nil)
	drop := insertTestDrop(t, store, "cascade")
	other := insertTestDrop(t, store, "other")

	for _, input := range []entities.NewClaimInput{
		{DropID: drop.DropID, UserID: "user-a"},
		{DropID: drop.DropID, UserID: "user-b"},
		{DropID: other.DropID, UserID: "user-a"},
	} {
		if _, err := store.TryInsertClaimAndIncrement(context.Background(), input); err != nil {
			t.Fatalf("claim: %v", err)
		}
	}

	deleted, err := store.DeleteDrop(context.Background(), drop.DropID)
	if err != nil || !deleted {
		t.Fatalf("expected drop deleted, got deleted=%v err=%v", deleted, err)
	}
	claims, _ := store.ListClaimsByDrop(context.Background(), drop.DropID)
	if len(claims) != 0 {
		t.Fatalf("expected cascade to remove claims, found %d", len(claims))
	}
	stats, _ := store.Stats(context.Background())
	if stats.TotalDrops != 1 || stats.TotalClaims != 1 {
		t.Fatalf("unexpected stats after delete: %+v", stats)
	}

	deleted, err = store.DeleteDrop(context.Background(), drop.DropID)
	if err != nil || deleted {
		t.Fatalf("second delete should report false, got deleted=%v err=%v", deleted, err)
	}

	// The uniqueness slot is released together with the drop's claims.
	if _, err := store.TryInsertClaimAndIncrement(context.Background(), entities.NewClaimInput{
		DropID: drop.DropID,
		UserID: "user-a",
	}); !errors.Is(err, domainerrors.ErrDropNotFound) {
		t.Fatalf("expected drop not found after delete, got %v", err)
	}
}

func TestReturnedSnapshotsDoNotAliasStoredState(t *testing.T) {
	store := NewStore(nil)
	lat, lng := 1.0, 2.0
	drop, err := store.InsertDrop(context.Background(), entities.NewDropInput{
		Title:    "snapshot",
		Lat:      &lat,
		Lng:      &lng,
		Metadata: map[string]any{"tier": "gold"},
	})
	if err != nil {
		t.Fatalf("insert drop: %v", err)
	}

	drop.Metadata["tier"] = "lead"
	drop.Location.Lat = 50
	drop.ClaimedCount = 99

	stored, _ := store.GetDrop(context.Background(), drop.DropID)
	if stored.Metadata["tier"] != "gold" || stored.Location.Lat != 1 || stored.ClaimedCount != 0 {
		t.Fatalf("stored drop was mutated through snapshot: %+v", stored)
	}
}

func TestListDropsFiltersAndOrdersNewestFirst(t *testing.T) {
	store := NewStoreWithClock(newSteppingClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)), nil)
	first := insertTestDrop(t, store, "first")
	second := insertTestDrop(t, store, "second")
	third := insertTestDrop(t, store, "third")

	if _, err := store.UpdateDrop(context.Background(), second.DropID, entities.DropPatch{"status": "archived"}); err != nil {
		t.Fatalf("archive drop: %v", err)
	}

	all, _ := store.ListDrops(context.Background(), ports.DropListFilter{Status: ports.StatusFilterAll})
	if len(all) != 3 || all[0].DropID != third.DropID || all[2].DropID != first.DropID {
		t.Fatalf("unexpected order: %+v", all)
	}

	active, _ := store.ListDrops(context.Background(), ports.DropListFilter{Status: "active"})
	if len(active) != 2 {
		t.Fatalf("expected 2 active drops, got %d", len(active))
	}
	archived, _ := store.ListDrops(context.Background(), ports.DropListFilter{Status: "archived"})
	if len(archived) != 1 || archived[0].DropID != second.DropID {
		t.Fatalf("unexpected archived drops: %+v", archived)
	}
}

func TestUpdateDropUnknownID(t *testing.T) {
	store := NewStore(nil)
	_, err := store.UpdateDrop(context.Background(), "missing", entities.DropPatch{"title": "x"})
	if !errors.Is(err, domainerrors.ErrDropNotFound) {
		t.Fatalf("expected drop not found, got %v", err)
	}
}

func TestExpireDrops(t *testing.T) {
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(newSteppingClock(start), nil)

	expiresAt := start.Add(time.Hour)
	expiring, err := store.InsertDrop(context.Background(), entities.NewDropInput{Title: "soon", ExpiresAt: &expiresAt})
	if err != nil {
		t.Fatalf("insert drop: %v", err)
	}
	insertTestDrop(t, store, "forever")

	expired, err := store.ExpireDrops(context.Background(), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("expire drops: %v", err)
	}
	if len(expired) != 1 || expired[0].DropID != expiring.DropID || expired[0].Status != entities.DropStatusExpired {
		t.Fatalf("unexpected expired drops: %+v", expired)
	}

	again, _ := store.ExpireDrops(context.Background(), start.Add(3*time.Hour))
	if len(again) != 0 {
		t.Fatalf("expired drops should not be swept twice, got %d", len(again))
	}
}

func TestListRewardsByUserJoinsDrops(t *testing.T) {
	store := NewStoreWithClock(newSteppingClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)), nil)
	a := insertTestDrop(t, store, "a")
	b := insertTestDrop(t, store, "b")

	for _, dropID := range []string{a.DropID, b.DropID} {
		if _, err := store.TryInsertClaimAndIncrement(context.Background(), entities.NewClaimInput{
			DropID: dropID,
			UserID: "user-a",
		}); err != nil {
			t.Fatalf("claim: %v", err)
		}
	}

	rewards, err := store.ListRewardsByUser(context.Background(), "user-a", 0)
	if err != nil {
		t.Fatalf("list rewards: %v", err)
	}
	if len(rewards) != 2 || rewards[0].Claim.DropID != b.DropID {
		t.Fatalf("expected newest reward first, got %+v", rewards)
	}
	if rewards[0].Drop == nil || rewards[0].Drop.ClaimedCount != 1 {
		t.Fatalf("expected joined drop snapshot, got %+v", rewards[0].Drop)
	}

	stats, _ := store.Stats(context.Background())
	if stats.LastClaim == nil || stats.LastClaim.DropID != b.DropID {
		t.Fatalf("unexpected last claim: %+v", stats.LastClaim)
	}
}
