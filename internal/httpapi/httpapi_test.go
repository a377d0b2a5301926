package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"pulsek12.com/pulse/internal/config"
	"pulsek12.com/pulse/internal/ingest"
)

type fakeRunner struct {
	calls    int
	counters *ingest.Counters
	err      error
}

func (f *fakeRunner) Run(ctx context.Context) (*ingest.Counters, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.counters, nil
}

func testServer(t *testing.T, runner IngestRunner) *Server {
	t.Helper()
	cfg := &config.Config{
		IngestSecret: "top-secret",
		CronSecret:   "cron-secret",
	}
	return NewServer(nil, cfg, zerolog.Nop(), runner, Options{})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	s := testServer(t, nil)
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Status != "success" {
		t.Fatalf("envelope status = %q, want success", body.Status)
	}
	if body.Data["service"] != "pulse" {
		t.Fatalf("service = %v, want pulse", body.Data["service"])
	}
}

func TestIngestTriggerAuth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: ingestSecretHeader, value: "nope", wantStatus: http.StatusUnauthorized},
		{name: "ingest secret", header: ingestSecretHeader, value: "top-secret", wantStatus: http.StatusOK},
		{name: "cron secret", header: ingestSecretHeader, value: "cron-secret", wantStatus: http.StatusOK},
		{name: "bearer token", header: "Authorization", value: "Bearer top-secret", wantStatus: http.StatusOK},
		{name: "bearer wrong token", header: "Authorization", value: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{counters: &ingest.Counters{Feeds: 3, Inserted: 7}}
			s := testServer(t, runner)
			e := s.buildEcho()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			e.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			wantCalls := 0
			if tc.wantStatus == http.StatusOK {
				wantCalls = 1
			}
			if runner.calls != wantCalls {
				t.Fatalf("runner called %d times, want %d", runner.calls, wantCalls)
			}
		})
	}
}

func TestIngestTriggerDisabledWithoutSecrets(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{counters: &ingest.Counters{}}
	s := NewServer(nil, &config.Config{}, zerolog.Nop(), runner, Options{})
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", nil)
	req.Header.Set(ingestSecretHeader, "")
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if runner.calls != 0 {
		t.Fatalf("runner called %d times, want 0", runner.calls)
	}
}

func TestIngestTriggerReturnsCounters(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{counters: &ingest.Counters{Feeds: 5, Fetched: 120, Inserted: 40}}
	s := testServer(t, runner)
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest", nil)
	req.Header.Set(ingestSecretHeader, "top-secret")
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Counters ingest.Counters `json:"counters"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Data.Counters.Fetched != 120 || body.Data.Counters.Inserted != 40 {
		t.Fatalf("unexpected counters: %+v", body.Data.Counters)
	}
}

func TestIngestTriggerRunFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("datastore offline")}
	s := testServer(t, runner)
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", nil)
	req.Header.Set(ingestSecretHeader, "top-secret")
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Status != "error" {
		t.Fatalf("envelope status = %q, want error", body.Status)
	}
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	t.Parallel()

	s := testServer(t, nil)
	e := s.buildEcho()

	paths := []string{
		"/api/v1/admin/stories/10/status",
		"/api/v1/admin/stories/10/override",
		"/api/v1/admin/stories/merge",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestStoriesRejectsUnknownAudience(t *testing.T) {
	t.Parallel()

	s := testServer(t, nil)
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stories?audience=board", nil)
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseStoryIDValidation(t *testing.T) {
	t.Parallel()

	s := testServer(t, nil)
	e := s.buildEcho()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stories/not-a-number", nil)
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
