package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfd/shelfd/pkg/config"
)

func TestRequestIDAssigned(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header")
	}
	if resp.Header.Get("X-Response-Time") == "" {
		t.Error("no X-Response-Time header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Request-ID", "client-chosen-id")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("X-Request-ID"); got != "client-chosen-id" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/todos", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /todos: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("no Allow-Methods header")
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.CORS.Origins = []string{"https://trusted.example.com"}
	})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "https://evil.example.com")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Request succeeds but carries no CORS allowance.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}

	// Preflight from a disallowed origin is refused outright.
	req, _ = http.NewRequest(http.MethodOptions, ts.URL+"/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("preflight status = %d, want 403", resp.StatusCode)
	}
}

func TestCORSAllowedOriginEchoed(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.CORS.Origins = []string{"https://trusted.example.com"}
	})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "https://trusted.example.com")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://trusted.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRateLimiting(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Rate = 1
		cfg.RateLimit.Burst = 3
	})
	client := ts.Client()

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := client.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			if resp.Header.Get("Retry-After") == "" {
				t.Error("429 without Retry-After header")
			}
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("burst of 10 requests against burst=3 never hit the limiter")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s, err := NewServer(nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := s.recoveryMiddleware(panicking)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
