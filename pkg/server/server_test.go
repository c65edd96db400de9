package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/exposition"
	"mercator-hq/callisto/pkg/hub"
	"mercator-hq/callisto/pkg/metrics"
	"mercator-hq/callisto/pkg/metrics/storage"
	"mercator-hq/callisto/pkg/query"
)

type testHarness struct {
	server   *Server
	store    *storage.Store
	registry *hub.Registry
	http     *httptest.Server
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	store, err := storage.Open(&storage.Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Driver: "sqlite3",
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := hub.NewRegistry(16, nil)
	pipeline := hub.NewPipeline(store, registry, nil)
	renderer := exposition.NewPrometheusRenderer(store, "dashboard", exposition.DefaultUpThreshold)

	server := NewServer(
		config.ServerConfig{ListenAddress: "127.0.0.1:0"},
		pipeline, registry, query.NewService(store), renderer,
		50*time.Millisecond,
	)

	ts := httptest.NewServer(server.routes())
	t.Cleanup(ts.Close)

	return &testHarness{server: server, store: store, registry: registry, http: ts}
}

func (h *testHarness) ingest(t *testing.T, payload string) *http.Response {
	t.Helper()
	resp, err := http.Post(h.http.URL+"/ingest", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /ingest: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestIngest_ValidPayload(t *testing.T) {
	h := newTestHarness(t)

	start := time.Now().Unix()
	resp := h.ingest(t, `{"service":"alpha","uptime":120,"requests":5}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var ack struct {
		OK bool  `json:"ok"`
		TS int64 `json:"ts"`
	}
	decodeBody(t, resp, &ack)
	if !ack.OK {
		t.Error("ack.ok = false")
	}
	if ack.TS < start {
		t.Errorf("server timestamp %d earlier than call start %d", ack.TS, start)
	}

	if got := h.store.RowCount(context.Background()); got != 1 {
		t.Errorf("RowCount() = %d, want 1", got)
	}
}

func TestIngest_MissingService(t *testing.T) {
	h := newTestHarness(t)

	resp := h.ingest(t, `{"uptime":120}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := h.store.RowCount(context.Background()); got != 0 {
		t.Errorf("RowCount() = %d after rejected payload, want 0", got)
	}
}

func TestIngest_MalformedJSON(t *testing.T) {
	h := newTestHarness(t)

	resp := h.ingest(t, `{"service":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestQueryEndpoints(t *testing.T) {
	h := newTestHarness(t)

	h.ingest(t, `{"service":"alpha","uptime":120,"requests":5}`)
	h.ingest(t, `{"service":"alpha","uptime":180,"requests":9}`)
	h.ingest(t, `{"service":"beta","uptime":10,"requests":1}`)

	t.Run("services", func(t *testing.T) {
		resp, err := http.Get(h.http.URL + "/api/services")
		if err != nil {
			t.Fatalf("GET /api/services: %v", err)
		}
		defer resp.Body.Close()

		var services []string
		decodeBody(t, resp, &services)
		if len(services) != 2 || services[0] != "alpha" || services[1] != "beta" {
			t.Errorf("services = %v", services)
		}
	})

	t.Run("series in order", func(t *testing.T) {
		resp, err := http.Get(h.http.URL + "/api/series?service=alpha&since=0")
		if err != nil {
			t.Fatalf("GET /api/series: %v", err)
		}
		defer resp.Body.Close()

		var series []metrics.SeriesPoint
		decodeBody(t, resp, &series)
		if len(series) != 2 {
			t.Fatalf("series has %d rows, want 2", len(series))
		}
		if series[0].Uptime != 120 || series[1].Uptime != 180 {
			t.Errorf("series = %v, want uptime order [120 180]", series)
		}
		if series[0].Timestamp > series[1].Timestamp {
			t.Errorf("series not ascending by timestamp: %v", series)
		}
	})

	t.Run("series requires service", func(t *testing.T) {
		resp, err := http.Get(h.http.URL + "/api/series")
		if err != nil {
			t.Fatalf("GET /api/series: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("unknown service series is empty array", func(t *testing.T) {
		resp, err := http.Get(h.http.URL + "/api/series?service=gamma")
		if err != nil {
			t.Fatalf("GET /api/series: %v", err)
		}
		defer resp.Body.Close()

		body := new(bytes.Buffer)
		body.ReadFrom(resp.Body)
		if strings.TrimSpace(body.String()) != "[]" {
			t.Errorf("body = %q, want []", body.String())
		}
	})

	t.Run("latest", func(t *testing.T) {
		resp, err := http.Get(h.http.URL + "/api/latest")
		if err != nil {
			t.Fatalf("GET /api/latest: %v", err)
		}
		defer resp.Body.Close()

		var latest map[string]metrics.LatestEntry
		decodeBody(t, resp, &latest)
		if latest["alpha"].Uptime != 180 || latest["alpha"].Requests != 9 {
			t.Errorf("latest[alpha] = %+v, want uptime=180 requests=9", latest["alpha"])
		}
		if latest["beta"].Uptime != 10 {
			t.Errorf("latest[beta] = %+v", latest["beta"])
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.ingest(t, `{"service":"alpha","uptime":180,"requests":9}`)

	resp, err := http.Get(h.http.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	text := body.String()
	for _, want := range []string{
		"dashboard_points_total 1",
		`dashboard_service_uptime{service="alpha"} 180`,
		"dashboard_services_up 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q in:\n%s", want, text)
		}
	}
}

func TestStream_DeliversSamplesAndKeepalives(t *testing.T) {
	h := newTestHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.http.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /stream: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}

	// Wait for the handler's subscription before ingesting.
	deadline := time.Now().Add(5 * time.Second)
	for h.registry.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.ingest(t, `{"service":"alpha","uptime":120,"requests":5}`)

	var sawData, sawKeepalive bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && !(sawData && sawKeepalive) {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			var sample metrics.Sample
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &sample); err != nil {
				t.Fatalf("decoding stream frame %q: %v", line, err)
			}
			if sample.Service != "alpha" || sample.Uptime != 120 {
				t.Errorf("streamed sample = %+v", sample)
			}
			sawData = true
		}
		if strings.HasPrefix(line, ": keepalive") {
			sawKeepalive = true
		}
	}
	if !sawData {
		t.Error("stream delivered no sample frame")
	}
	if !sawKeepalive {
		t.Error("stream emitted no keepalive frame")
	}

	// Disconnect; the handler must unsubscribe exactly once.
	cancel()
	deadline = time.Now().Add(5 * time.Second)
	for h.registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber leaked after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHarness(t)

	resp, err := http.Get(h.http.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
