package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/server/middleware"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body.Error.Code
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/execute", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "INTERNAL_ERROR" {
		t.Errorf("unexpected code %s", code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID(t *testing.T) {
	existing := uuid.NewString()
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"valid uuid kept", existing, true},
		{"invalid replaced", "not-a-uuid", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Header.Get(middleware.HeaderRequestID)
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tc.incoming != "" {
				req.Header.Set(middleware.HeaderRequestID, tc.incoming)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get(middleware.HeaderRequestID)
			if got != seen {
				t.Errorf("handler saw %q, response carried %q", seen, got)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected uuid, got %q", got)
			}
			if tc.keep && got != tc.incoming {
				t.Errorf("expected %q kept, got %q", tc.incoming, got)
			}
			if !tc.keep && got == tc.incoming {
				t.Errorf("expected %q replaced", tc.incoming)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins:   []string{"https://example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	handler := middleware.CORS(cfg)(http.HandlerFunc(ok))

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantCode   int
	}{
		{"allowed", "GET", "https://example.com", false, "https://example.com", http.StatusOK},
		{"disallowed", "GET", "https://evil.com", false, "", http.StatusOK},
		{"preflight", "OPTIONS", "https://example.com", true, "https://example.com", http.StatusNoContent},
		{"plain options", "OPTIONS", "https://example.com", false, "https://example.com", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/execute", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("expected origin %q, got %q", tc.wantOrigin, got)
			}
			if tc.wantOrigin != "" {
				if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
					t.Errorf("unexpected methods %q", got)
				}
				if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
					t.Errorf("expected credentials, got %q", got)
				}
			}
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	handler := middleware.CORS(middleware.CORSConfig{AllowedOrigins: []string{"*"}})(http.HandlerFunc(ok))
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("Origin", "https://anything.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example" {
		t.Errorf("expected origin echoed, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	tests := []struct {
		name   string
		path   string
		status int
		logged bool
		level  string
	}{
		{"success", "/v1/execute", http.StatusOK, true, "debug"},
		{"client error", "/v1/execute", http.StatusBadRequest, true, "warn"},
		{"server error", "/v1/execute", http.StatusInternalServerError, true, "error"},
		{"probe skipped", "/health", http.StatusOK, false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("POST", tc.path, http.NoBody))

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if !tc.logged {
				if buf.Len() != 0 {
					t.Errorf("expected no log line, got %s", buf.String())
				}
				return
			}
			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
			}
			if entry["level"] != tc.level || entry["status"] != float64(tc.status) || entry["path"] != tc.path {
				t.Errorf("unexpected entry %v", entry)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// BodySizeLimit
// ---------------------------------------------------------------------------

func TestBodySizeLimit(t *testing.T) {
	handler := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRecorder()
	handler.ServeHTTP(small, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 512))))
	if small.Code != http.StatusOK {
		t.Errorf("expected 200 under the limit, got %d", small.Code)
	}

	large := httptest.NewRecorder()
	handler.ServeHTTP(large, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 2048))))
	if large.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 over the limit, got %d", large.Code)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{"1GB", 1 << 30},
		{"64B", 64},
		{"2048", 2048},
		{" 3 MB ", 3 << 20},
		{"", 7},
		{"lots", 7},
		{"-1KB", 7},
	}
	for _, tc := range tests {
		if got := middleware.ParseSize(tc.in, 7); got != tc.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuth(t *testing.T) {
	const secret = "s3cret"
	valid, err := middleware.SignToken(secret, "", "alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := middleware.SignToken(secret, "", "alice", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := middleware.SignToken("other", "", "alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var subject any
	handler := middleware.Auth(middleware.AuthConfig{
		Validator: middleware.HMACValidator(secret, ""),
		SkipPaths: []string{"/public"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.ClaimsFromContext(r.Context())
		subject = claims["sub"]
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid", "/v1/execute", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "/v1/execute", "bearer " + valid, http.StatusOK},
		{"missing", "/v1/execute", "", http.StatusUnauthorized},
		{"expired", "/v1/execute", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "/v1/execute", "Bearer " + otherKey, http.StatusUnauthorized},
		{"no token", "/v1/execute", "Bearer ", http.StatusUnauthorized},
		{"skipped path", "/public/info", "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject = nil
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			if tc.want == http.StatusUnauthorized && errorCode(t, rr) != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED body, got %s", rr.Body.String())
			}
			if tc.want == http.StatusOK && tc.header != "" && subject != "alice" {
				t.Errorf("expected subject in context, got %v", subject)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func TestRateLimit(t *testing.T) {
	handler := middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: 2})(http.HandlerFunc(ok))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", http.NoBody)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		rr := send("10.0.0.1:1000")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
		if got, want := rr.Header().Get("X-RateLimit-Remaining"), strconv.Itoa(1-i); got != want {
			t.Errorf("request %d: expected remaining %s, got %q", i, want, got)
		}
	}
	rr := send("10.0.0.1:2000")
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for same host, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" || rr.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("unexpected headers %v", rr.Header())
	}
	if rr := send("10.0.0.2:1000"); rr.Code != http.StatusOK {
		t.Errorf("expected other host allowed, got %d", rr.Code)
	}
}

func TestRateLimitConfig_ToLimiterRate(t *testing.T) {
	rate := middleware.RateLimitConfig{RequestsPerMinute: 30}.ToLimiterRate()
	if rate.Limit != 30 || rate.Period != time.Minute {
		t.Errorf("unexpected rate %+v", rate)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.RemoteAddr = "192.0.2.7:5555"
	if got := middleware.ClientIP(req); got != "192.0.2.7" {
		t.Errorf("unexpected ip %q", got)
	}
	req.RemoteAddr = "pipe"
	if got := middleware.ClientIP(req); got != "pipe" {
		t.Errorf("expected raw address fallback, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Chain and statusWriter
// ---------------------------------------------------------------------------

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-before")
				next.ServeHTTP(w, r)
				order = append(order, name+"-after")
			})
		}
	}
	handler := middleware.Chain(mark("m1"), mark("m2"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))

	want := "m1-before,m2-before,handler,m2-after,m1-after"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

type flushRecorder struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestStatusWriterFlush(t *testing.T) {
	fr := &flushRecorder{ResponseWriter: httptest.NewRecorder()}
	handler := middleware.RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(fr, httptest.NewRequest("GET", "/stream", http.NoBody))
	if !fr.flushed {
		t.Error("expected Flush to be delegated to underlying writer")
	}
}
