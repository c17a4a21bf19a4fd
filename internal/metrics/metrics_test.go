package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServer_Routes(t *testing.T) {
	var rec Recorder
	rec.Claimed(1)
	rec.Started(2)
	rec.Refreshed(false)
	rec.Failed("transport")
	rec.Balance(1, 100, 5)

	srv := httptest.NewServer(NewServer(slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`blum_farmer_claims_total{account="1"} 1`,
		`blum_farmer_cycle_starts_total{account="2"} 1`,
		`blum_farmer_token_refreshes_total{result="failed"} 1`,
		`blum_farmer_iteration_failures_total{kind="transport"} 1`,
		`blum_farmer_available_balance{account="1"} 100`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
