package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// newMetricsTestServer builds a Server backed by a fresh isolated registry so
// tests do not pollute prometheus.DefaultRegisterer.
func newMetricsTestServer(t *testing.T, tr *fakeTranslator) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s, err := New(tr, fakeSearcher{}, &Config{
		Logger:          discardLogger(),
		MetricsRegistry: reg,
		MetricsGatherer: reg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, reg
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	s, _ := newMetricsTestServer(t, &fakeTranslator{})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_TranslateOutcomes(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t, &fakeTranslator{result: "MATCH (n) RETURN n"})
	h := s.Handler()

	for _, q := range []string{"🤖, all nodes", "plain text", "🤖, again"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, translateReq(t, q))
		if w.Code != http.StatusOK {
			t.Fatalf("query %q: want 200, got %d", q, w.Code)
		}
	}

	if got := metricValue(t, reg, "ragcypher_translate_requests_total", outcomeOK); got != 2 {
		t.Errorf("ok outcome: want 2, got %v", got)
	}
	if got := metricValue(t, reg, "ragcypher_translate_requests_total", outcomePassthrough); got != 1 {
		t.Errorf("passthrough outcome: want 1, got %v", got)
	}
	if got := metricValue(t, reg, "ragcypher_translate_in_flight", ""); got != 0 {
		t.Errorf("in_flight after completion: want 0, got %v", got)
	}
}

// metricValue returns the counter or gauge value of the named family whose
// "outcome" label equals outcome (any sample when outcome is empty).
func metricValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := outcome == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					match = true
				}
			}
			if !match {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("%s{outcome=%q} not found", name, outcome)
	return 0
}

func Test_Metrics_HTTPCounterLabels(t *testing.T) {
	t.Parallel()
	s, reg := newMetricsTestServer(t, &fakeTranslator{})
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "ragcypher_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["handler"] == "health" && labels["code"] == "200" && labels["method"] == "get" {
				found = m.GetCounter().GetValue() == 1
			}
		}
	}
	if !found {
		t.Error(`ragcypher_http_requests_total{handler="health",code="200",method="get"} == 1 not found`)
	}
}

func Test_Metrics_RateLimitedCounter(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	s, err := New(&fakeTranslator{result: "RETURN 1"}, fakeSearcher{}, &Config{
		Logger:          discardLogger(),
		MetricsRegistry: reg,
		MetricsGatherer: reg,
		RateLimit:       0.001,
		RateBurst:       1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	h := s.Handler()

	for range 3 {
		h.ServeHTTP(httptest.NewRecorder(), translateReq(t, "🤖, q"))
	}

	if got := metricValue(t, reg, "ragcypher_http_rate_limited_total", ""); got != 2 {
		t.Errorf("rate_limited_total: want 2, got %v", got)
	}
}
