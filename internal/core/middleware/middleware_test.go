package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mylog "github.com/mohammed-shakir/hazard-query/internal/logger"
)

func TestLogging_EchoesOrGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	zl := mylog.Build(mylog.Config{Level: "debug"}, &buf)

	var seen string
	h := Logging(mylog.NewSlog(&zl))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = mylog.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/query?lat=1&lon=2", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("ctx id=%q header=%q want abc-123", seen, rr.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), `"request_id":"abc-123"`) {
		t.Fatalf("log line missing request id: %s", buf.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query", nil))
	if got := rr.Header().Get("X-Request-ID"); len(got) != 16 || got != seen {
		t.Fatalf("generated id header=%q ctx=%q", got, seen)
	}
}

func TestRecover_RendersGenericError(t *testing.T) {
	var buf bytes.Buffer
	zl := mylog.Build(mylog.Config{Level: "info"}, &buf)

	h := Recover(mylog.NewSlog(&zl))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rr.Code)
	}
	if rr.Body.String() != `{"error":"Error processing"}` {
		t.Fatalf("body=%q", rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("content-type=%q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/query", nil))
	if rr.Code != http.StatusNoContent || called {
		t.Fatalf("preflight status=%d called=%v", rr.Code, called)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing allow-origin")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query", nil))
	if !called || rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("GET not passed through with CORS header")
	}
}
