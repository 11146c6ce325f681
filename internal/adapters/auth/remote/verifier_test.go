package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"medicare-adherence/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIAM(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, verifyPath, r.URL.Path)
		require.Equal(t, "key", r.Header.Get("X-Api-Key"))

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch body["token"] {
		case "good":
			_, _ = w.Write([]byte(`{"user_id":"cg-9","email":"ana@example.com"}`))
		case "broken":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.Error(w, "nope", http.StatusUnauthorized)
		}
	}))
}

func TestVerify(t *testing.T) {
	srv := newIAM(t)
	defer srv.Close()

	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{CaregiverID: "cg-9", Email: "ana@example.com"}, c)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = v.Verify(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestNewVerifier_RequiresConfig(t *testing.T) {
	_, err := NewVerifier(Config{BaseURL: "http://iam"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
