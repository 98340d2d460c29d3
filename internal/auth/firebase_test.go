package auth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIDTokens struct {
	token *fbauth.Token
	err   error
}

func (s stubIDTokens) VerifyIDToken(context.Context, string) (*fbauth.Token, error) {
	return s.token, s.err
}

type stubExternalUsers struct {
	uid, mail string
}

func (s *stubExternalUsers) EnsureExternal(_ context.Context, uid, mail string) (string, error) {
	s.uid, s.mail = uid, mail
	return "local-" + uid, nil
}

func TestFirebaseVerifier(t *testing.T) {
	users := &stubExternalUsers{}
	v := NewFirebaseVerifier(stubIDTokens{token: &fbauth.Token{
		UID:    "fb-123",
		Claims: map[string]interface{}{"email": "ana@uni.example"},
	}}, users)

	id, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "local-fb-123", id)
	assert.Equal(t, "ana@uni.example", users.mail)
}

func TestFirebaseVerifierInvalidToken(t *testing.T) {
	v := NewFirebaseVerifier(stubIDTokens{err: errors.New("token expired")}, &stubExternalUsers{})

	_, err := v.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInitializeFirebaseRequiresCredentials(t *testing.T) {
	_, err := InitializeFirebase(context.Background(), "")
	assert.EqualError(t, err, "FIREBASE_CREDENTIALS_PATH is required")
}
