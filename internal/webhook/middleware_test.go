package webhook

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	log := logging.New(nil, "silent")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	loggingMiddleware(inner, log).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	rr := httptest.NewRecorder()
	requestIDMiddleware(inner).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, rr.Header().Get("X-Request-ID"), seen)
}

func TestRequestIDMiddleware_PreservesExisting(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "custom-id-123")
	rr := httptest.NewRecorder()
	requestIDMiddleware(inner).ServeHTTP(rr, req)

	assert.Equal(t, "custom-id-123", rr.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	log := logging.New(nil, "silent")
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	recoveryMiddleware(inner, log).ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestRequireAuth(t *testing.T) {
	log := logging.New(nil, "silent")
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	h := requireAuth(inner, ResolvedAuth{Mode: "basic", Username: "u", Password: "p"}, log)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, `Basic realm="zoebot"`, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest("POST", "/", nil)
	req.SetBasicAuth("u", "p")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestStatusWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	sw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
