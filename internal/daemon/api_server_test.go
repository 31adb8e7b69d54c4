package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moviola/internal/api"
	"moviola/internal/logging"
	"moviola/internal/queue"
	"moviola/internal/stage"
	"moviola/internal/testsupport"
	"moviola/internal/worker"
)

type stubHandler struct {
	kind queue.Kind
}

func (h stubHandler) Kind() queue.Kind { return h.kind }

func (h stubHandler) Execute(context.Context, *queue.Job, stage.Sink) error { return nil }

func (h stubHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(string(h.kind))
}

func newTestServer(t *testing.T) (*apiServer, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := worker.NewManager(cfg, store, logging.NewNop())
	mgr.Register(stubHandler{kind: queue.KindConvert})
	d, err := New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if d.api == nil {
		t.Fatal("expected api server to be configured")
	}
	return d.api, d
}

func TestAPIServerListJobs(t *testing.T) {
	srv, d := newTestServer(t)
	if _, err := d.Submit(context.Background(), "convert", "gala", queue.Params{}, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].Kind != "convert" || resp.Jobs[0].Project != "gala" {
		t.Fatalf("unexpected job: %+v", resp.Jobs[0])
	}
}

func TestAPIServerListJobsStatusFilter(t *testing.T) {
	srv, d := newTestServer(t)
	if _, err := d.Submit(context.Background(), "convert", "gala", queue.Params{}, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=Pending", nil)
	w := httptest.NewRecorder()
	srv.handleListJobs(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for normalized status, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(resp.Jobs))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs?status=pnding", nil)
	w = httptest.NewRecorder()
	srv.handleListJobs(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unknown status") {
		t.Fatalf("expected error naming the status, got %q", w.Body.String())
	}
}

func TestAPIServerSubmitUsesRealIP(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"kind":"ingest","project":"gala"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.RemoteAddr = "10.0.0.9:51234"
	w := httptest.NewRecorder()
	srv.handleSubmitJob(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var params queue.Params
	if err := json.Unmarshal(resp.Job.Params, &params); err != nil {
		t.Fatalf("failed to decode params: %v", err)
	}
	if params.RemoteHost != "203.0.113.7" {
		t.Fatalf("remote host = %q", params.RemoteHost)
	}
}

func TestAPIServerSubmitRejectsUnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"kind":"bogus","project":"gala"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	w := httptest.NewRecorder()
	srv.handleSubmitJob(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon should not be running")
	}
	if resp.QueueDBPath == "" || resp.LockFilePath == "" {
		t.Fatalf("missing paths: %+v", resp)
	}
}

func TestCallerAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
	req.RemoteAddr = "192.0.2.4:4242"
	if got := callerAddr(req); got != "192.0.2.4" {
		t.Fatalf("callerAddr = %q", got)
	}
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := callerAddr(req); got != "198.51.100.2" {
		t.Fatalf("callerAddr with header = %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := authMiddleware("secret")(next)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with token, got %d", w.Code)
	}

	open := authMiddleware("")(next)
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without auth configured, got %d", w.Code)
	}
}
