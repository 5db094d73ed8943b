package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dropservice "moveserver/contexts/geo-rewards/drop-service"
	drophttp "moveserver/contexts/geo-rewards/drop-service/transport/http"
	"moveserver/internal/platform/messaging"
	"moveserver/internal/platform/metrics"
)

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	promMetrics := metrics.New()
	fanout := messaging.NewFanout("moveserver-test", 16, promMetrics, logger)
	return New(Options{
		Drops:        dropservice.NewInMemoryModule(fanout, logger),
		Events:       fanout,
		Metrics:      promMetrics.Handler(),
		MigrateToken: "secret",
		Version:      "test-version",
		Addr:         ":0",
		Logger:       logger,
	})
}

func doJSON(t *testing.T, server *Server, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func createTestDrop(t *testing.T, server *Server, body string) drophttp.DropDTO {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/drops", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp drophttp.DropResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode drop: %v", err)
	}
	return resp.Drop
}

func TestCreateAndGetDrop(t *testing.T) {
	server := newTestServer()
	drop := createTestDrop(t, server, `{"title":"Tower","lat":46.05,"lng":14.51,"metadata":{"tier":"gold"}}`)
	if drop.Kind != "geo" || drop.RadiusMeters != 25 || drop.Status != "active" || drop.ClaimedCount != 0 {
		t.Fatalf("unexpected defaults: %+v", drop)
	}

	rr := doJSON(t, server, http.MethodGet, "/drops/"+drop.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on alias route, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp drophttp.DropResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Drop.Metadata["tier"] != "gold" {
		t.Fatalf("metadata not round-tripped: %+v", resp.Drop)
	}
}

func TestCreateDropRejectsInvalidInput(t *testing.T) {
	server := newTestServer()
	for _, body := range []string{
		`{"title":""}`,
		`{"title":"x","lat":46.05}`,
		`{"title":"x","radius_m":0}`,
		`{"title":"x","starts_at":"not-a-time"}`,
		`not json`,
	} {
		rr := doJSON(t, server, http.MethodPost, "/api/drops", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d body=%s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestListDropsDefaultsToActive(t *testing.T) {
	server := newTestServer()
	kept := createTestDrop(t, server, `{"title":"kept"}`)
	archived := createTestDrop(t, server, `{"title":"archived"}`)

	rr := doJSON(t, server, http.MethodPatch, "/api/drops/"+archived.ID, `{"status":"archived"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("archive: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var active drophttp.ListDropsResponse
	rr = doJSON(t, server, http.MethodGet, "/api/drops", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(active.Items) != 1 || active.Items[0].ID != kept.ID {
		t.Fatalf("expected only the active drop, got %+v", active.Items)
	}

	var all drophttp.ListDropsResponse
	rr = doJSON(t, server, http.MethodGet, "/api/drops?status=all", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Items) != 2 || all.Items[0].ID != archived.ID {
		t.Fatalf("expected both drops newest first, got %+v", all.Items)
	}

	if rr := doJSON(t, server, http.MethodGet, "/api/drops?status=bogus", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/drops?limit=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestClaimFlowStatusCodes(t *testing.T) {
	server := newTestServer()
	drop := createTestDrop(t, server, `{"title":"Square","lat":46.05,"lng":14.51,"radius_m":25}`)

	claim := func(user string, lat float64) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"drop_id":%q,"user_id":%q,"lat":%v,"lng":14.51,"tx_hash":"0x1"}`, drop.ID, user, lat)
		return doJSON(t, server, http.MethodPost, "/api/claims", body)
	}

	if rr := claim("user-a", 46.05); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := claim("user-a", 46.05); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	// 0.0009 degrees north is roughly 100 meters.
	rr := claim("user-b", 46.0509)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	var tooFar drophttp.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &tooFar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tooFar.Code != "too_far" || tooFar.ShortfallMeters == nil || *tooFar.ShortfallMeters < 70 {
		t.Fatalf("expected shortfall in body, got %+v", tooFar)
	}

	if rr := doJSON(t, server, http.MethodPost, "/claims", `{"user_id":"user-c"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing drop_id, got %d", rr.Code)
	}
	missing := `{"drop_id":"00000000-0000-0000-0000-000000000000","user_id":"user-c"}`
	if rr := doJSON(t, server, http.MethodPost, "/claims", missing); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown drop, got %d", rr.Code)
	}

	var claims drophttp.ListClaimsResponse
	rr = doJSON(t, server, http.MethodGet, "/api/drops/"+drop.ID+"/claims", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &claims); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(claims.Items) != 1 || claims.Items[0].UserID != "user-a" || claims.Items[0].TxHash == nil {
		t.Fatalf("unexpected claims: %+v", claims.Items)
	}
}

func TestRewardsAndStats(t *testing.T) {
	server := newTestServer()
	drop := createTestDrop(t, server, `{"title":"Market"}`)
	body := fmt.Sprintf(`{"drop_id":%q,"user_id":"user-a","value":3.5}`, drop.ID)
	if rr := doJSON(t, server, http.MethodPost, "/api/claims", body); rr.Code != http.StatusOK {
		t.Fatalf("claim: %d %s", rr.Code, rr.Body.String())
	}

	if rr := doJSON(t, server, http.MethodGet, "/api/claims", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without user_id, got %d", rr.Code)
	}

	var rewards drophttp.ListRewardsResponse
	rr := doJSON(t, server, http.MethodGet, "/api/claims?user_id=user-a", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &rewards); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rewards.Items) != 1 || rewards.Items[0].Drop == nil || rewards.Items[0].Drop.Title != "Market" {
		t.Fatalf("unexpected rewards: %+v", rewards.Items)
	}

	var stats drophttp.StatsResponse
	rr = doJSON(t, server, http.MethodGet, "/stats", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Totals.Drops != 1 || stats.Totals.Claims != 1 || stats.LastClaim == nil {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDeleteDrop(t *testing.T) {
	server := newTestServer()
	drop := createTestDrop(t, server, `{"title":"Gone"}`)

	if rr := doJSON(t, server, http.MethodDelete, "/api/drops/"+drop.ID, ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodDelete, "/api/drops/"+drop.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/drops/"+drop.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestHealthVersionAndMetrics(t *testing.T) {
	server := newTestServer()

	var health drophttp.HealthResponse
	rr := doJSON(t, server, http.MethodGet, "/health", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !health.OK || health.DB != "memory" || health.Version != "test-version" {
		t.Fatalf("unexpected health: %+v", health)
	}

	rr = doJSON(t, server, http.MethodGet, "/version", "")
	if !strings.Contains(rr.Body.String(), "test-version") {
		t.Fatalf("unexpected version body: %s", rr.Body.String())
	}

	createTestDrop(t, server, `{"title":"metered"}`)
	rr = doJSON(t, server, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `moveserver_events_published_total{event_type="drop_created"} 1`) {
		t.Fatalf("expected fan-out counter in metrics, got %d", rr.Code)
	}
}

func TestMigrateRequiresTokenAndDurableStore(t *testing.T) {
	server := newTestServer()

	if rr := doJSON(t, server, http.MethodPost, "/admin/migrate?token=wrong", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodPost, "/admin/migrate?token=secret", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without durable store, got %d", rr.Code)
	}
}

func TestCreateDropAcceptsNumericStrings(t *testing.T) {
	server := newTestServer()
	tests := []struct {
		body   string
		radius int
		lat    *float64
	}{
		{body: `{"title":"Quoted","radius_m":"30","lat":"46.05","lng":"14.51"}`, radius: 30, lat: floatValue(46.05)},
		{body: `{"title":"Fractional","radius_m":30.5}`, radius: 31},
		{body: `{"title":"Garbage","radius_m":"wide","lat":"north"}`, radius: 25},
	}

	for _, tc := range tests {
		drop := createTestDrop(t, server, tc.body)
		if drop.RadiusMeters != tc.radius {
			t.Fatalf("%s: expected radius %d, got %d", tc.body, tc.radius, drop.RadiusMeters)
		}
		switch {
		case tc.lat == nil && drop.Lat != nil:
			t.Fatalf("%s: expected no lat, got %v", tc.body, *drop.Lat)
		case tc.lat != nil && (drop.Lat == nil || *drop.Lat != *tc.lat):
			t.Fatalf("%s: expected lat %v, got %v", tc.body, *tc.lat, drop.Lat)
		}
	}
}

func floatValue(v float64) *float64 { return &v }
