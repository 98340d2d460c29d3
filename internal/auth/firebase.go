package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitializeFirebase initializes the Firebase Admin SDK and returns an Auth client
func InitializeFirebase(ctx context.Context, credentialsPath string) (*fbauth.Client, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	return authClient, nil
}

// IDTokenVerifier is the part of the Firebase Auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// ExternalUsers links identity provider accounts to local users.
type ExternalUsers interface {
	EnsureExternal(ctx context.Context, uid, mail string) (string, error)
}

// FirebaseVerifier accepts Firebase ID tokens and maps them onto local users,
// creating one on first sight.
type FirebaseVerifier struct {
	client IDTokenVerifier
	users  ExternalUsers
}

func NewFirebaseVerifier(client IDTokenVerifier, users ExternalUsers) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (string, error) {
	decoded, err := v.client.VerifyIDToken(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mail, _ := decoded.Claims["email"].(string)
	return v.users.EnsureExternal(ctx, decoded.UID, mail)
}
