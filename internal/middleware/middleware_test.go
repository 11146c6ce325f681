package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medicare-adherence/internal/platform/logger"
	"medicare-adherence/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	token string
}

func (v stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token != v.token {
		return auth.Claims{}, auth.ErrUnauthorized
	}
	return auth.Claims{CaregiverID: "cg-1"}, nil
}

func echoCaregiver() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CaregiverID(r.Context())))
	})
}

func TestAuthContext_DevHeader(t *testing.T) {
	h := AuthContext(nil)(echoCaregiver())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugCaregiverHeader, " cg-dev ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "cg-dev", rr.Body.String())
}

func TestAuthContext_Verifier(t *testing.T) {
	h := AuthContext(stubVerifier{token: "good"})(echoCaregiver())

	cases := map[string]string{
		"Bearer good": "cg-1",
		"bearer good": "cg-1",
		"Bearer bad":  "",
		"Basic good":  "",
		"":            "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		// en modo verifier el header dev se ignora
		req.Header.Set(DebugCaregiverHeader, "intruder")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Body.String(), "header=%q", header)
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(echoCaregiver())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rr.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// otra IP tiene su propio bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(echoCaregiver())
	for i := 0; i < 20; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimit_EvictsIdleClients(t *testing.T) {
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	store.now = func() time.Time { return clock }

	first := store.get("10.0.0.1")
	store.get("10.0.0.2")
	require.Len(t, store.visitors, 2)

	// 10.0.0.2 sigue activo, 10.0.0.1 no
	clock = clock.Add(limiterIdleTTL / 2)
	store.get("10.0.0.2")

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	store.get("10.0.0.3")

	assert.Len(t, store.visitors, 2)
	assert.NotContains(t, store.visitors, "10.0.0.1")
	assert.Contains(t, store.visitors, "10.0.0.2")

	// si vuelve, arranca con un bucket nuevo
	assert.NotSame(t, first, store.get("10.0.0.1"))
}

func TestRequestLog_WritesStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/elderly/x", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/elderly/x", entry["path"])
	assert.EqualValues(t, 404, entry["status"])
}
