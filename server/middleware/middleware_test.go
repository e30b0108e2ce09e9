package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error code: %s", body.Error.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestContext
// ---------------------------------------------------------------------------

func newContextRouter(t *testing.T, seen *string) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(middleware.RequestContext())
	r.GET("/", func(c *gin.Context) {
		id, ok := logger.RequestIDFromContext(c.Request.Context())
		if !ok {
			t.Error("expected request id on the request context")
		}
		if id != middleware.RequestID(c) {
			t.Errorf("context id %q differs from gin id %q", id, middleware.RequestID(c))
		}
		*seen = id
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestContext_GeneratesID(t *testing.T) {
	var seen string
	r := newContextRouter(t, &seen)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	got := rr.Header().Get(middleware.HeaderRequestID)
	if got == "" {
		t.Fatal("expected X-Request-Id in response headers")
	}
	if got != seen {
		t.Errorf("response id %q differs from handler id %q", got, seen)
	}
}

func TestRequestContext_PreservesExisting(t *testing.T) {
	var seen string
	r := newContextRouter(t, &seen)

	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "existing-id")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get(middleware.HeaderRequestID); got != "existing-id" {
		t.Errorf("expected existing-id, got %q", got)
	}
	if seen != "existing-id" {
		t.Errorf("handler saw %q", seen)
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins:   []string{"https://example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", "GET", "https://example.com", http.StatusOK, "https://example.com"},
		{"preflight", "OPTIONS", "https://example.com", http.StatusNoContent, "https://example.com"},
		{"disallowed origin", "GET", "https://evil.com", http.StatusOK, ""},
		{"no origin", "GET", "", http.StatusOK, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", http.NoBody)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("expected origin %q, got %q", tc.wantOrigin, got)
			}
			if tc.wantOrigin != "" && rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("expected credentials header")
			}
			if tc.wantOrigin != "" && rr.Header().Get("Access-Control-Expose-Headers") != middleware.HeaderRequestID {
				t.Errorf("expected %s to be exposed, got %q", middleware.HeaderRequestID, rr.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestCORSExposedHeaders(t *testing.T) {
	tests := []struct {
		name       string
		configured []string
		want       string
	}{
		{"default", nil, "X-Request-Id"},
		{"appended", []string{"ETag"}, "ETag, X-Request-Id"},
		{"already listed", []string{"x-request-id", "ETag"}, "x-request-id, ETag"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := middleware.CORSConfig{AllowedOrigins: []string{"*"}, ExposedHeaders: tc.configured, MaxAge: 600}
			handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

			req := httptest.NewRequest(http.MethodOptions, "/api/feeds", http.NoBody)
			req.Header.Set("Origin", "https://dashboard.example")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Errorf("exposed headers = %q, want %q", got, tc.want)
			}
			if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
				t.Errorf("max age = %q, want 600", got)
			}
			if rr.Header().Get("Access-Control-Allow-Origin") != "https://dashboard.example" {
				t.Error("origin must be echoed for a wildcard config")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(middleware.HeaderRequestID, "req-9")
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/feeds", http.NoBody))

	out := buf.String()
	for _, want := range []string{`"status":404`, `"path":"/api/feeds"`, `"request_id":"req-9"`, `"level":"warn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
}

func TestRequestLogger_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Errorf("health requests must not be logged, got %q", buf.String())
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
	handler.ServeHTTP(small, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("a", 512))))
	if small.Code != http.StatusOK {
		t.Errorf("expected 200 for small body, got %d", small.Code)
	}

	large := httptest.NewRecorder()
	handler.ServeHTTP(large, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("a", 2048))))
	if large.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for large body, got %d", large.Code)
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
		{"2048", 2048},
		{"", 7},
		{"lots", 7},
		{"-5MB", 7},
	}
	for _, tc := range tests {
		if got := middleware.ParseSize(tc.in, 7); got != tc.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))

	if strings.Join(order, ",") != "a,b,c,handler" {
		t.Errorf("unexpected order %v", order)
	}
}

// ---------------------------------------------------------------------------
// statusWriter
// ---------------------------------------------------------------------------

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestStatusWriter_Flush(t *testing.T) {
	rec := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	handler := middleware.RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/stream", http.NoBody))

	if !rec.flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
}
