package jwtverifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medicare-adherence/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Claims del token. sub = caregiver id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Verifier valida tokens HS256 firmados con un secreto compartido.
type Verifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func New(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), opts: opts}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil || !t.Valid {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub", auth.ErrUnauthorized)
	}

	return auth.Claims{CaregiverID: sub, Email: claims.Email, Role: claims.Role}, nil
}

// Sign emite un token para el cuidador (tests y herramientas de dev).
func (v *Verifier) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
