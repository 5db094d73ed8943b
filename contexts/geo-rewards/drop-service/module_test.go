package dropservice

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"

	postgresadapter "moveserver/contexts/geo-rewards/drop-service/adapters/postgres"
	"moveserver/contexts/geo-rewards/drop-service/adapters/memory"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/domain/services"
	"moveserver/contexts/geo-rewards/drop-service/ports"
	httptransport "moveserver/contexts/geo-rewards/drop-service/transport/http"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type publishedEvent struct {
	eventType string
	entityID  string
	payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, entityID string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, entityID: entityID, payload: payload})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.eventType)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

// pointNorth returns the latitude that is meters north of lat along a meridian.
func pointNorth(lat float64, meters float64) float64 {
	return lat + (meters/services.EarthRadiusMeters)*180/math.Pi
}

type claimStep struct {
	user      string
	meters    float64
	wantErr   error
	shortfall int
	wantCount int
}

// runClaimSequence drives the reference claim sequence against any backend
// and checks the outcome and claimed_count after every step.
func runClaimSequence(t *testing.T, module Module) {
	t.Helper()
	ctx := context.Background()
	const lat, lng = 46.05, 14.51
	radius := 25

	created, err := module.Handler.CreateDropHandler(ctx, httptransport.CreateDropRequest{
		Title:        "Castle hill",
		Lat:          floatPtr(lat),
		Lng:          floatPtr(lng),
		RadiusMeters: &radius,
	})
	if err != nil {
		t.Fatalf("create drop: %v", err)
	}
	dropID := created.Drop.ID

	steps := []claimStep{
		{user: "claimant-a", meters: 10, wantCount: 1},
		{user: "claimant-a", meters: 10, wantErr: domainerrors.ErrAlreadyClaimed, wantCount: 1},
		{user: "claimant-b", meters: 40, wantErr: domainerrors.ErrTooFar, shortfall: 15, wantCount: 1},
		{user: "claimant-b", meters: 20, wantCount: 2},
	}
	for i, step := range steps {
		_, err := module.Handler.SubmitClaimHandler(ctx, httptransport.SubmitClaimRequest{
			DropID: dropID,
			UserID: step.user,
			Lat:    floatPtr(pointNorth(lat, step.meters)),
			Lng:    floatPtr(lng),
		})
		if step.wantErr == nil && err != nil {
			t.Fatalf("step %d: expected success, got %v", i, err)
		}
		if step.wantErr != nil && !errors.Is(err, step.wantErr) {
			t.Fatalf("step %d: expected %v, got %v", i, step.wantErr, err)
		}
		if step.shortfall > 0 {
			shortfall, ok := domainerrors.ShortfallMeters(err)
			if !ok || shortfall != step.shortfall {
				t.Fatalf("step %d: expected shortfall %d, got %d", i, step.shortfall, shortfall)
			}
		}

		drop, err := module.Handler.GetDropHandler(ctx, dropID)
		if err != nil {
			t.Fatalf("step %d: get drop: %v", i, err)
		}
		if drop.Drop.ClaimedCount != step.wantCount {
			t.Fatalf("step %d: expected claimed_count=%d, got %d", i, step.wantCount, drop.Drop.ClaimedCount)
		}
	}

	if _, err := module.Handler.DeleteDropHandler(ctx, dropID); err != nil {
		t.Fatalf("delete drop: %v", err)
	}
	claims, err := module.Backend.ListClaimsByDrop(ctx, dropID)
	if err != nil || len(claims) != 0 {
		t.Fatalf("expected claims removed with drop, got %d err=%v", len(claims), err)
	}
	_, err = module.Handler.SubmitClaimHandler(ctx, httptransport.SubmitClaimRequest{
		DropID: dropID,
		UserID: "claimant-c",
		Lat:    floatPtr(lat),
		Lng:    floatPtr(lng),
	})
	if !errors.Is(err, domainerrors.ErrDropNotFound) {
		t.Fatalf("expected drop not found after delete, got %v", err)
	}
}

func TestClaimSequenceOnVolatileStore(t *testing.T) {
	publisher := &recordingPublisher{}
	module := NewInMemoryModule(publisher, nil)
	runClaimSequence(t, module)

	want := []string{
		ports.EventDropCreated,
		ports.EventClaimCreated,
		ports.EventClaimCreated,
		ports.EventDropDeleted,
	}
	got := publisher.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestClaimSequenceOnDurableStore(t *testing.T) {
	dsn := os.Getenv("MOVESERVER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MOVESERVER_TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	repo := postgresadapter.NewRepository(db, nil)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	module := NewModule(Dependencies{
		Backend:   repo,
		Publisher: &recordingPublisher{},
		Clock:     postgresadapter.SystemClock{},
	})
	runClaimSequence(t, module)
}

func TestClaimRequiresDropAndUser(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	_, err := module.Handler.SubmitClaimHandler(context.Background(), httptransport.SubmitClaimRequest{UserID: "user-a"})
	if !errors.Is(err, domainerrors.ErrInvalidClaimPayload) {
		t.Fatalf("expected invalid claim payload, got %v", err)
	}
}

func TestClaimWithoutCoordinatesSkipsGeofence(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	created, err := module.Handler.CreateDropHandler(context.Background(), httptransport.CreateDropRequest{
		Title: "Anywhere",
		Lat:   floatPtr(0),
		Lng:   floatPtr(0),
	})
	if err != nil {
		t.Fatalf("create drop: %v", err)
	}
	if created.Drop.Kind != "geo" || created.Drop.RadiusMeters != 25 || created.Drop.Status != "active" {
		t.Fatalf("unexpected defaults: %+v", created.Drop)
	}

	if _, err := module.Handler.SubmitClaimHandler(context.Background(), httptransport.SubmitClaimRequest{
		DropID: created.Drop.ID,
		UserID: "user-a",
		Lat:    floatPtr(10),
	}); err != nil {
		t.Fatalf("half coordinates should skip the geofence: %v", err)
	}
}

func TestExpirerPublishesDropUpdated(t *testing.T) {
	publisher := &recordingPublisher{}
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{Backend: store, Publisher: publisher, Clock: store})

	past := "2020-01-01T00:00:00Z"
	created, err := module.Handler.CreateDropHandler(context.Background(), httptransport.CreateDropRequest{
		Title:     "Stale",
		ExpiresAt: &past,
	})
	if err != nil {
		t.Fatalf("create drop: %v", err)
	}
	if err := module.Expirer.RunOnce(context.Background()); err != nil {
		t.Fatalf("expirer: %v", err)
	}

	publisher.mu.Lock()
	last := publisher.events[len(publisher.events)-1]
	publisher.mu.Unlock()
	if last.eventType != ports.EventDropUpdated || last.entityID != created.Drop.ID {
		t.Fatalf("unexpected last event: %+v", last)
	}
	dto, ok := last.payload.(httptransport.DropDTO)
	if !ok || dto.Status != "expired" {
		t.Fatalf("expected expired drop dto payload, got %#v", last.payload)
	}
}
