package v1

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// googleIdentity is what we keep from a verified Google ID token.
type googleIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
}

type googleVerifier interface {
	Verify(ctx context.Context, code string) (*googleIdentity, error)
}

// oauthVerifier exchanges an authorization code server-side and validates the
// returned ID token against our client id.
type oauthVerifier struct {
	oauth    *oauth2.Config
	clientID string
}

func newGoogleVerifier(clientID, clientSecret, redirectURL string) *oauthVerifier {
	return &oauthVerifier{
		clientID: clientID,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
}

func (v *oauthVerifier) Verify(ctx context.Context, code string) (*googleIdentity, error) {
	token, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("id_token not present in token response")
	}
	payload, err := idtoken.Validate(ctx, raw, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	id := &googleIdentity{}
	id.Email, _ = payload.Claims["email"].(string)
	id.EmailVerified, _ = payload.Claims["email_verified"].(bool)
	id.Name, _ = payload.Claims["name"].(string)
	return id, nil
}
