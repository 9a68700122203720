package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jihwankim/roleguard/pkg/metrics"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := metrics.New()
	reg.EvaluationsTotal.WithLabelValues("evm-whale-role", "allow").Inc()
	reg.RequirementChecks.WithLabelValues("1", "pass").Inc()
	reg.UsersEvaluated.Add(3)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	buf := make([]byte, 64*1024)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])

	for _, want := range []string{
		"roleguard_evaluations_total",
		"roleguard_requirement_checks_total",
		"roleguard_users_evaluated_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
