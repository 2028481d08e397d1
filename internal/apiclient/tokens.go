package apiclient

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenStore persists the token pair of one browser session.
type TokenStore interface {
	Tokens(ctx context.Context) (*oauth2.Token, error)
	SaveTokens(ctx context.Context, token *oauth2.Token) error
	// ClearTokens is called when the session cannot be recovered.
	ClearTokens(ctx context.Context) error
}

// TokenClaims are the claims the BFF reads from a backend access token.
type TokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseTokenClaims decodes an access token without verifying its signature;
// the backend is the token authority, the BFF only reads expiry and subject.
func ParseTokenClaims(accessToken string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// NewToken builds an oauth2.Token from the backend's access/refresh pair. The expiry
// is taken from the access token's exp claim when it is a JWT.
func NewToken(access, refresh string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if claims, err := ParseTokenClaims(access); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok
}

// needsRefresh reports whether the access token is known to be expired.
func needsRefresh(tok *oauth2.Token, now time.Time) bool {
	if tok.Expiry.IsZero() {
		return false
	}
	return !now.Before(tok.Expiry.Add(-10 * time.Second))
}
