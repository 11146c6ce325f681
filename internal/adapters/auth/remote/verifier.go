package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medicare-adherence/internal/platform/httpclient"
	"medicare-adherence/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("remote auth not configured")
	ErrUpstream      = errors.New("remote auth upstream error")
)

const verifyPath = "/v1/tokens/verify"

// Config del servicio de identidad externo.
type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key. Default: "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration

	// Transport opcional (tests).
	Transport http.RoundTripper
}

// Verifier implementa auth.AuthVerifier contra un IAM externo.
// Las llamadas pasan por el breaker de httpclient para no colgar requests
// cuando el IAM está caído.
type Verifier struct {
	client       *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	c, err := httpclient.New(httpclient.Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         timeout,
		Transport:       cfg.Transport,
		BreakerName:     "remote-auth",
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &Verifier{client: c, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: h}, nil
}

type verifyResponse struct {
	CaregiverID string `json:"caregiver_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrUnauthorized
	}

	headers := map[string]string{
		v.apiKeyHeader:  v.apiKey,
		"Authorization": "Bearer " + token,
	}

	var out verifyResponse
	err := v.client.DoJSON(ctx, http.MethodPost, verifyPath, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, auth.ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// Algunos IAM devuelven user_id en vez de caregiver_id.
	id := strings.TrimSpace(out.CaregiverID)
	if id == "" {
		id = strings.TrimSpace(out.UserID)
	}
	if id == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing caregiver id", ErrUpstream)
	}

	return auth.Claims{
		CaregiverID: id,
		Email:       strings.TrimSpace(out.Email),
		Role:        strings.TrimSpace(out.Role),
	}, nil
}
