package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
