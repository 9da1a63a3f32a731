package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAward(t *testing.T) {
	m := NewLedger()

	m.ObserveAward(OutcomeGranted, 25)
	m.ObserveAward(OutcomeDuplicate, 25)

	if got := testutil.ToFloat64(m.awards.WithLabelValues(OutcomeGranted)); got != 1 {
		t.Errorf("granted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.awards.WithLabelValues(OutcomeDuplicate)); got != 1 {
		t.Errorf("duplicate = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.points.WithLabelValues("awarded")); got != 25 {
		t.Errorf("points awarded = %v, want 25", got)
	}
}

func TestObserveRedemption(t *testing.T) {
	m := NewLedger()

	m.ObserveRedemption(OutcomeRedeemed, 60)
	m.ObserveRedemption(OutcomeInsufficient, 60)

	if got := testutil.ToFloat64(m.points.WithLabelValues("spent")); got != 60 {
		t.Errorf("points spent = %v, want 60", got)
	}
	if got := testutil.ToFloat64(m.redemptions.WithLabelValues(OutcomeInsufficient)); got != 1 {
		t.Errorf("insufficient = %v, want 1", got)
	}
}

func TestNilLedgerIsNoop(t *testing.T) {
	var m *Ledger
	m.ObserveAward(OutcomeGranted, 1)
	m.ObserveRedemption(OutcomeRedeemed, 1)
	m.ObserveDuration("redeem", time.Millisecond)
}

func TestHandlerExposesLedgerMetrics(t *testing.T) {
	m := NewLedger()
	m.ObserveRedemption(OutcomeRedeemed, 10)
	m.ObserveDuration("redeem", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"desafiados_ledger_redemptions_total",
		"desafiados_ledger_points_total",
		"desafiados_ledger_operation_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
