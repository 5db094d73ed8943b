package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserversIncrementCollectors(t *testing.T) {
	m := New()
	m.ObserveClaimOutcome("created")
	m.ObserveClaimOutcome("created")
	m.ObserveClaimOutcome("too_far")
	m.ObserveBackendFallback("claim_drop")
	m.SetSubscribers(3)

	if got := testutil.ToFloat64(m.ClaimOutcomes.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.BackendFallbacks.WithLabelValues("claim_drop")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveSubscribers); got != 3 {
		t.Fatalf("expected 3 subscribers, got %v", got)
	}
}

func TestSeparateInstancesDoNotShareRegistry(t *testing.T) {
	first := New()
	second := New()
	first.ObserveEventDropped("claim_created")

	if got := testutil.ToFloat64(second.EventsDropped.WithLabelValues("claim_created")); got != 0 {
		t.Fatalf("expected isolated registries, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SetActiveBackend("memory")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `moveserver_backend_active{backend="memory"} 1`) {
		t.Fatalf("expected backend gauge in output, got %s", rr.Body.String())
	}
}
