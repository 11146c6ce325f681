package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized lo devuelven los verifiers cuando el token no es válido.
var ErrUnauthorized = errors.New("unauthorized")

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
