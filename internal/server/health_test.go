package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakePinger reports err after an optional delay.
type fakePinger struct {
	name  string
	err   error
	delay time.Duration
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func getReady(t *testing.T, pingers ...Pinger) (int, readyResponse) {
	t.Helper()
	s := newTestServer()
	s.pingers = pingers

	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode ready response: %v", err)
	}
	return w.Code, resp
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if body["version"] != "dev" {
		t.Errorf("version = %q, want dev", body["version"])
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")

	tests := []struct {
		name      string
		pingers   []Pinger
		wantCode  int
		wantReady bool
		wantOK    []bool
	}{
		{
			name:      "no pingers",
			wantCode:  http.StatusOK,
			wantReady: true,
		},
		{
			name:      "all healthy",
			pingers:   []Pinger{&fakePinger{name: "neo4j"}, &fakePinger{name: "openai"}},
			wantCode:  http.StatusOK,
			wantReady: true,
			wantOK:    []bool{true, true},
		},
		{
			name:      "search backend down",
			pingers:   []Pinger{&fakePinger{name: "neo4j", err: refused}, &fakePinger{name: "openai"}},
			wantCode:  http.StatusServiceUnavailable,
			wantReady: false,
			wantOK:    []bool{false, true},
		},
		{
			name:      "everything down",
			pingers:   []Pinger{&fakePinger{name: "qdrant", err: refused}, &fakePinger{name: "ollama", err: refused}},
			wantCode:  http.StatusServiceUnavailable,
			wantReady: false,
			wantOK:    []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, resp := getReady(t, tt.pingers...)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if resp.Ready != tt.wantReady {
				t.Errorf("ready = %v, want %v", resp.Ready, tt.wantReady)
			}
			if len(resp.Checks) != len(tt.wantOK) {
				t.Fatalf("got %d checks, want %d", len(resp.Checks), len(tt.wantOK))
			}
			for i, c := range resp.Checks {
				if c.Name != tt.pingers[i].Name() {
					t.Errorf("check %d name = %q, want %q (registration order)", i, c.Name, tt.pingers[i].Name())
				}
				if c.OK != tt.wantOK[i] {
					t.Errorf("check %q ok = %v, want %v", c.Name, c.OK, tt.wantOK[i])
				}
				switch {
				case c.OK && c.Error != "":
					t.Errorf("check %q: healthy check carries error %q", c.Name, c.Error)
				case !c.OK && c.Error != refused.Error():
					t.Errorf("check %q error = %q, want %q", c.Name, c.Error, refused.Error())
				}
			}
		})
	}
}

func TestHandleReady_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()

	const delay = 200 * time.Millisecond
	start := time.Now()
	code, resp := getReady(t,
		&fakePinger{name: "neo4j", delay: delay},
		&fakePinger{name: "openai", delay: delay},
		&fakePinger{name: "ollama", delay: delay},
	)
	elapsed := time.Since(start)

	if code != http.StatusOK || !resp.Ready {
		t.Fatalf("status = %d ready = %v, want 200 true", code, resp.Ready)
	}
	if elapsed >= 3*delay {
		t.Errorf("elapsed %v, want < %v: three checks must overlap", elapsed, 3*delay)
	}
	for _, c := range resp.Checks {
		if floor := int64(delay/time.Millisecond) - 5; c.LatencyMS < floor {
			t.Errorf("check %q latency_ms = %d, want >= %d", c.Name, c.LatencyMS, floor)
		}
	}
}
