package api

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthCredentials are the installed-app credentials used for the Ads API
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// NewRefreshTokenSource exchanges the long-lived refresh token for access
// tokens on demand, caching each until it expires.
func NewRefreshTokenSource(ctx context.Context, creds OAuthCredentials) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/adwords"},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
}
