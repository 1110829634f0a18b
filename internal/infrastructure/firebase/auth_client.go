package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// AuthClient wraps Firebase ID-token verification. Session issuance lives
// outside this service; only verification is needed here.
type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{
		client: client,
	}
}

// VerifyToken returns the Firebase UID for a valid ID token.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	return result.UID, nil
}
