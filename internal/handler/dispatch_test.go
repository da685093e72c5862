package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/labstack/echo/v4"

	"action-router/internal/config"
	"action-router/internal/metrics"
	"action-router/internal/model"
	"action-router/internal/service"
)

type recordingDelegate struct {
	calls int
	body  string
}

func (d *recordingDelegate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.calls++
	b, _ := io.ReadAll(r.Body)
	d.body = string(b)
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("from mcp"))
}

type failingInvoker struct{ err error }

func (f failingInvoker) Invoke(context.Context, model.ActionInput) (string, error) {
	return "", f.err
}

type failingHealth struct{ err error }

func (f failingHealth) Check(context.Context) (string, error) {
	return "", f.err
}

func newTestDispatcher(delegate http.Handler) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(config.Default(), service.PreviewInvoker{}, service.StaticHealth{}, nil, logger, nil)
	if delegate != nil {
		d.delegate = delegate
	}
	return d
}

func serve(d *Dispatcher, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	RegisterRoutes(e, d)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDispatcher_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, "healthy"},
		{"health ignores query", http.MethodGet, "/health?x=1", "", http.StatusOK, "healthy"},
		{
			"action preview", http.MethodPost, "/actions",
			`{"action_id":"a1","payload":{"input":"hello"}}`,
			http.StatusOK, "Action a1 would be called with payload: hello",
		},
		{
			"action with query", http.MethodPost, "/actions?trace=1",
			`{"action_id":"a2","payload":{"input":"x y"}}`,
			http.StatusOK, "Action a2 would be called with payload: x y",
		},
		{"action missing payload", http.MethodPost, "/actions", `{"action_id":"a1"}`, http.StatusBadRequest, `missing field "payload"`},
		{"action not json", http.MethodPost, "/actions", `not json`, http.StatusBadRequest, "invalid character 'o' in literal null (expecting 'u')"},
		{"action empty body", http.MethodPost, "/actions", ``, http.StatusBadRequest, "unexpected end of JSON input"},
		{"GET /actions is not found", http.MethodGet, "/actions", "", http.StatusNotFound, "Route not found: GET /actions"},
		{"GET /mcp is not found", http.MethodGet, "/mcp", "", http.StatusNotFound, "Route not found: GET /mcp"},
		{"POST /health is not found", http.MethodPost, "/health", "", http.StatusNotFound, "Route not found: POST /health"},
		{"DELETE /unknown", http.MethodDelete, "/unknown", "", http.StatusNotFound, "Route not found: DELETE /unknown"},
		{"non-standard method", "PURGE", "/unknown", "", http.StatusNotFound, "Route not found: PURGE /unknown"},
		{"non-standard method on known path", "LINK", "/health", "", http.StatusNotFound, "Route not found: LINK /health"},
		{"non-standard method on root", "PURGE", "/", "", http.StatusNotFound, "Route not found: PURGE /"},
		{"not found strips query", http.MethodGet, "/nope?a=b", "", http.StatusNotFound, "Route not found: GET /nope"},
		{"root", http.MethodGet, "/", "", http.StatusNotFound, "Route not found: GET /"},
		{"nested path", http.MethodGet, "/health/deep", "", http.StatusNotFound, "Route not found: GET /health/deep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(nil)
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := serve(d, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if ct := rec.Header().Get(echo.HeaderContentType); ct != echo.MIMETextPlainCharsetUTF8 {
				t.Errorf("Content-Type = %q, want %q", ct, echo.MIMETextPlainCharsetUTF8)
			}
		})
	}
}

func TestDispatcher_McpDelegatesOnce(t *testing.T) {
	delegate := &recordingDelegate{}
	d := newTestDispatcher(delegate)

	body := `{"jsonrpc":"2.0","method":"tools/list","id":1}`
	req := httptest.NewRequest(http.MethodPost, "/mcp?session=s1", strings.NewReader(body))
	rec := serve(d, req)

	if delegate.calls != 1 {
		t.Fatalf("delegate calls = %d, want 1", delegate.calls)
	}
	if delegate.body != body {
		t.Errorf("delegate saw body %q, want the unconsumed original %q", delegate.body, body)
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.String() != "from mcp" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "from mcp")
	}
}

func TestDispatcher_Dispatch_ReturnsDelegate(t *testing.T) {
	d := newTestDispatcher(&recordingDelegate{})
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("x"))

	res, err := d.Dispatch(req)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !res.Delegated() {
		t.Fatal("Dispatch() result not delegated")
	}
	if res.Response() != (model.Response{}) {
		t.Errorf("delegated result carries a response: %+v", res.Response())
	}
	if b, _ := io.ReadAll(req.Body); string(b) != "x" {
		t.Errorf("Dispatch() consumed the body, remaining %q", b)
	}
}

func TestDispatcher_McpNotConfigured(t *testing.T) {
	d := newTestDispatcher(nil)
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	rec := serve(d, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if rec.Body.String() != service.DelegationFailedMessage {
		t.Errorf("body = %q, want %q", rec.Body.String(), service.DelegationFailedMessage)
	}
}

func TestDispatcher_BodyReadFailure(t *testing.T) {
	d := newTestDispatcher(nil)
	req := httptest.NewRequest(http.MethodPost, "/actions", iotest.ErrReader(errors.New("stream reset")))
	rec := serve(d, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if rec.Body.String() != "stream reset" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "stream reset")
	}
}

func TestDispatcher_BodyTruncatedAtLimit(t *testing.T) {
	d := newTestDispatcher(nil)
	d.bodyLimit = 16

	req := httptest.NewRequest(http.MethodPost, "/actions",
		strings.NewReader(`{"action_id":"a1","payload":{"input":"hello"}}`))
	rec := serve(d, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec.Body.String() != "unexpected end of JSON input" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "unexpected end of JSON input")
	}
}

func TestDispatcher_CollaboratorFailures(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		setup      func(d *Dispatcher)
		wantStatus int
		wantBody   string
	}{
		{
			name: "action call failed", method: http.MethodPost, target: "/actions",
			body: `{"action_id":"a1","payload":{"input":"x"}}`,
			setup: func(d *Dispatcher) {
				d.actions = failingInvoker{err: service.ActionCallFailed(errors.New("action a1 not found"))}
			},
			wantStatus: http.StatusBadRequest, wantBody: "action a1 not found",
		},
		{
			name: "health check failed", method: http.MethodGet, target: "/health",
			setup: func(d *Dispatcher) {
				d.health = failingHealth{err: service.HealthCheckFailed(errors.New("degraded"))}
			},
			wantStatus: http.StatusBadRequest, wantBody: "degraded",
		},
		{
			name: "untyped error", method: http.MethodGet, target: "/health",
			setup: func(d *Dispatcher) {
				d.health = failingHealth{err: errors.New("panic-ish")}
			},
			wantStatus: http.StatusInternalServerError, wantBody: service.DelegationFailedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(nil)
			tt.setup(d)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := serve(d, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDispatcher_mapError(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"invalid input", service.InvalidInput(cause), http.StatusBadRequest, "cause"},
		{"failed to read body", service.FailedToReadBody(cause), http.StatusInternalServerError, "cause"},
		{"action call failed", service.ActionCallFailed(cause), http.StatusBadRequest, "cause"},
		{"health check failed", service.HealthCheckFailed(cause), http.StatusBadRequest, "cause"},
		{"mcp forward failed", service.McpForwardFailed(cause), http.StatusInternalServerError, "cause"},
		{"delegate to mcp", service.DelegateToMcpFailed(cause), http.StatusInternalServerError, service.DelegationFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(nil)
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := d.mapError(c, tt.err); err != nil {
				t.Fatalf("mapError() returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDispatcher_RecordsOutcomes(t *testing.T) {
	m := metrics.New()
	d := newTestDispatcher(&recordingDelegate{})
	d.metrics = m

	serve(d, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	serve(d, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	serve(d, httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader("nope")))

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]bool{
		"health/response":        false,
		"mcp/delegated":          false,
		"actions/invalid_input":  false,
	}
	for _, f := range families {
		if f.GetName() != "action_router_dispatch_outcomes_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			key := labels["route"] + "/" + labels["outcome"]
			if _, ok := want[key]; ok {
				want[key] = true
			}
		}
	}
	for key, found := range want {
		if !found {
			t.Errorf("expected dispatch outcome %s", key)
		}
	}
}
