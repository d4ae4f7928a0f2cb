package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imoveis/internal/adapters/observability"
)

func scrape(t *testing.T) string {
	t.Helper()
	reg := observability.InitRegistry()
	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestMetricsRegistryAndHandler(t *testing.T) {
	observability.ObserveHTTP("/v1/properties/search", "POST", 200, 12*time.Millisecond)

	if out := scrape(t); !strings.Contains(out, "imoveis_http_requests_total") {
		t.Fatalf("expected imoveis_http_requests_total in output")
	}
}

func TestObservePipeline_Outcomes(t *testing.T) {
	observability.ObservePipeline("create", 201)
	observability.ObservePipeline("create", 409)
	observability.ObservePipeline("create", 400)
	observability.ObservePipeline("update", 404)
	observability.ObservePipeline("update", 500)

	out := scrape(t)
	for _, want := range []string{
		`imoveis_pipeline_outcomes_total{op="create",outcome="ok"} 1`,
		`imoveis_pipeline_outcomes_total{op="create",outcome="conflict"} 1`,
		`imoveis_pipeline_outcomes_total{op="create",outcome="invalid"} 1`,
		`imoveis_pipeline_outcomes_total{op="update",outcome="not_found"} 1`,
		`imoveis_pipeline_outcomes_total{op="update",outcome="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
