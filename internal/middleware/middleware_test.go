package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EmpoweredVote/EV-Civics/internal/middleware"
)

// call wraps a simple 200-OK inner handler in the middleware and returns the
// recorded response.
func call(t *testing.T, mw func(http.Handler) http.Handler, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, "/essentials/areas", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)
	return rec
}

func TestCORS_AllowedOriginIsEchoed(t *testing.T) {
	rec := call(t, middleware.CORS(middleware.DefaultOrigins), http.MethodGet, "https://essentials.empowered.vote")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://essentials.empowered.vote", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_UnknownOriginGetsNoGrant(t *testing.T) {
	rec := call(t, middleware.CORS(middleware.DefaultOrigins), http.MethodGet, "https://evil.example")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Server-Timing, Cache-Control", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rec := call(t, middleware.CORS([]string{"http://localhost:5173"}), http.MethodOptions, "http://localhost:5173")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	rec := call(t, middleware.RequestLogger, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
