package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/taskflow/capability"
	"github.com/kbukum/taskflow/component"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/orchestrator"
	"github.com/kbukum/taskflow/server/endpoint"
	"github.com/kbukum/taskflow/server/middleware"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, mutate func(*Config), checker func(context.Context) []component.Health) *Server {
	t.Helper()
	reg := capability.NewRegistry()
	reg.MustRegister(capability.Sync("a", func(map[string]any) (any, error) {
		return map[string]any{"x": 1}, nil
	}), capability.Metadata{Description: "produces x", Provides: []string{"x"}})
	reg.MustRegister(capability.Sync("b", func(p map[string]any) (any, error) {
		return p, nil
	}))

	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	if mutate != nil {
		mutate(&cfg)
	}

	log := logger.Nop()
	srv := New(cfg, log)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints("taskflow", checker)
	orch := orchestrator.New(reg, orchestrator.WithLogger(log))
	NewHandler(orch, reg, log).Register(srv.APIGroup())
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

type executeResponse struct {
	Data struct {
		ExecutionID string         `json:"execution_id"`
		Values      map[string]any `json:"values"`
		Plan        struct {
			Batches [][]string `json:"batches"`
		} `json:"plan"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestExecuteEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rr := do(t, srv, http.MethodPost, "/v1/execute",
		`{"tasks":[{"name":"b","params":{"y":2},"depends_on":["a"]},{"name":"a"},{"name":"missing"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp executeResponse
	decode(t, rr, &resp)
	if resp.Data.ExecutionID == "" {
		t.Error("expected execution id")
	}
	b, _ := resp.Data.Values["b"].(map[string]any)
	if b["x"] != float64(1) || b["y"] != float64(2) {
		t.Errorf("expected propagated x and param y, got %v", resp.Data.Values["b"])
	}
	missing, _ := resp.Data.Values["missing"].(map[string]any)
	if missing["code"] != "CAPABILITY_NOT_FOUND" {
		t.Errorf("expected inline CAPABILITY_NOT_FOUND, got %v", resp.Data.Values["missing"])
	}
	if got := fmt.Sprint(resp.Data.Plan.Batches); got != "[[a missing] [b]]" {
		t.Errorf("unexpected batches %s", got)
	}
}

func TestExecuteEndpointRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"tasks":`},
		{"no tasks", `{"tasks":[]}`},
		{"empty name", `{"tasks":[{"name":""}]}`},
		{"bad timeout", `{"tasks":[{"name":"a"}],"timeout":"later"}`},
	}
	srv := newTestServer(t, nil, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/v1/execute", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp errorResponse
			decode(t, rr, &resp)
			if resp.Error.Code != "INVALID_INPUT" {
				t.Errorf("expected INVALID_INPUT, got %+v", resp.Error)
			}
		})
	}
}

func TestExecuteEndpointBodyLimit(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.MaxBodySize = "64B" }, nil)
	body := `{"tasks":[{"name":"a","params":{"pad":"` + strings.Repeat("x", 128) + `"}}]}`
	rr := do(t, srv, http.MethodPost, "/v1/execute", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rr.Code)
	}
}

func TestPlanEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rr := do(t, srv, http.MethodPost, "/v1/plan",
		`{"tasks":[{"name":"b","depends_on":["a"]},{"name":"a"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Data struct {
			Batches [][]string `json:"batches"`
		} `json:"data"`
	}
	decode(t, rr, &resp)
	if got := fmt.Sprint(resp.Data.Batches); got != "[[a] [b]]" {
		t.Errorf("unexpected batches %s", got)
	}
}

func TestCapabilitiesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rr := do(t, srv, http.MethodGet, "/v1/capabilities", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Data []capability.Descriptor `json:"data"`
	}
	decode(t, rr, &resp)
	if len(resp.Data) != 2 || resp.Data[0].Name != "a" || resp.Data[0].Description != "produces x" {
		t.Errorf("unexpected catalogue %+v", resp.Data)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, func(c *Config) {
		c.Auth = AuthConfig{Enabled: true, Secret: testSecret, Issuer: "taskflow"}
	}, nil)

	token, err := middleware.SignToken(testSecret, "taskflow", "tester", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := middleware.SignToken(testSecret, "someone-else", "tester", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		header []string
		want   int
	}{
		{"missing token", "/v1/capabilities", nil, http.StatusUnauthorized},
		{"wrong scheme", "/v1/capabilities", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized},
		{"garbage token", "/v1/capabilities", []string{"Authorization", "Bearer abc"}, http.StatusUnauthorized},
		{"wrong issuer", "/v1/capabilities", []string{"Authorization", "Bearer " + foreign}, http.StatusUnauthorized},
		{"valid token", "/v1/capabilities", []string{"Authorization", "Bearer " + token}, http.StatusOK},
		{"probe is open", "/alive", nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tc.path, "", tc.header...)
			if rr.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.RateLimit = 1 }, nil)
	if rr := do(t, srv, http.MethodGet, "/v1/capabilities", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/v1/capabilities", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	var resp errorResponse
	decode(t, rr, &resp)
	if resp.Error.Code != "RATE_LIMITED" {
		t.Errorf("unexpected error %+v", resp.Error)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rr := do(t, srv, http.MethodGet, "/alive", "")
	if rr.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("expected generated request id")
	}
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		status     component.HealthStatus
		wantHealth int
		wantReady  int
	}{
		{"healthy", component.StatusHealthy, http.StatusOK, http.StatusOK},
		{"degraded", component.StatusDegraded, http.StatusOK, http.StatusOK},
		{"unhealthy", component.StatusUnhealthy, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, nil, func(context.Context) []component.Health {
				return []component.Health{{Name: "telemetry", Status: tc.status}}
			})
			rr := do(t, srv, http.MethodGet, "/health", "")
			if rr.Code != tc.wantHealth {
				t.Errorf("health: expected %d, got %d", tc.wantHealth, rr.Code)
			}
			var body map[string]any
			decode(t, rr, &body)
			if body["status"] != string(tc.status) {
				t.Errorf("expected status %s, got %v", tc.status, body["status"])
			}
			rr = do(t, srv, http.MethodGet, "/ready", "")
			if rr.Code != tc.wantReady {
				t.Errorf("ready: expected %d, got %d", tc.wantReady, rr.Code)
			}
			var probe endpoint.ProbeResponse
			decode(t, rr, &probe)
			if tc.status == component.StatusUnhealthy {
				if probe.Status != "not_ready" || len(probe.Waiting) != 1 || probe.Waiting[0] != "telemetry" {
					t.Errorf("unexpected readiness body %+v", probe)
				}
			} else if probe.Status != "ready" || len(probe.Waiting) != 0 {
				t.Errorf("unexpected readiness body %+v", probe)
			}
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rr := do(t, srv, http.MethodGet, "/version", "")
	var body map[string]any
	decode(t, rr, &body)
	if body["service"] != "taskflow" || body["version"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestComponentLifecycle(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.Port = 0 }, nil)
	sc := NewComponent(srv)
	ctx := context.Background()

	if sc.Health(ctx).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy before start")
	}
	if err := sc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sc.Health(ctx).Status != component.StatusHealthy {
		t.Error("expected healthy after start")
	}

	resp, err := http.Post("http://"+srv.Addr()+"/v1/execute", "application/json",
		bytes.NewBufferString(`{"tasks":[{"name":"a"}]}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 over the wire, got %d", resp.StatusCode)
	}

	if err := sc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sc.Health(ctx).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy after stop")
	}
}

func TestComponentDescribeAndRoutes(t *testing.T) {
	srv := newTestServer(t, func(c *Config) {
		c.Auth = AuthConfig{Enabled: true, Secret: testSecret}
		c.RateLimit = 30
	}, nil)
	sc := NewComponent(srv)

	desc := sc.Describe()
	if desc.Type != "server" || desc.Port != 8080 {
		t.Errorf("unexpected description %+v", desc)
	}
	if !strings.Contains(desc.Details, "jwt") || !strings.Contains(desc.Details, "30 req/min") {
		t.Errorf("expected auth and rate limit in details, got %q", desc.Details)
	}

	routes := sc.Routes()
	if len(routes) != 7 {
		t.Fatalf("expected 7 routes, got %d: %+v", len(routes), routes)
	}
	if routes[0].Path != "/v1/capabilities" || routes[len(routes)-1].Path != "/version" {
		t.Errorf("expected API routes first, got %+v", routes)
	}
}

func TestHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/kbukum/taskflow/server.(*Handler).Execute-fm": "Handler.Execute",
		"github.com/kbukum/taskflow/server/endpoint.Health.func1": "endpoint.Health",
		"main.main.func1": "main.main",
	}
	for in, want := range tests {
		if got := handlerName(in); got != want {
			t.Errorf("handlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad port", Config{Port: 70000}, true},
		{"negative rate", Config{RateLimit: -1}, true},
		{"auth without secret", Config{Auth: AuthConfig{Enabled: true}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
