package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenProvider yields the bearer token of the primary session-based
// identity provider. The raw token is a JWT issued by the session backend;
// it is passed through unverified (the upstream validates the signature) but
// an already-expired token is declined here so callers fall through to the
// wallet provider instead of failing an external call.
type SessionTokenProvider struct {
	// GetSession returns the current session JWT, or false when no session
	// is active.
	GetSession func(ctx context.Context) (string, bool)
}

// Name implements provider.TokenProvider.
func (p *SessionTokenProvider) Name() string { return "session" }

// TryGetToken implements provider.TokenProvider.
func (p *SessionTokenProvider) TryGetToken(ctx context.Context) (string, bool) {
	if p.GetSession == nil {
		return "", false
	}
	raw, ok := p.GetSession(ctx)
	if !ok || raw == "" {
		return "", false
	}
	if expired(raw) {
		return "", false
	}
	return raw, true
}

func expired(raw string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		// Not a JWT; let the upstream decide.
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// WalletTokenProvider yields the bearer token of the alternate wallet-based
// identity provider.
type WalletTokenProvider struct {
	// GetToken returns the wallet access token, or false when the wallet is
	// not connected.
	GetToken func(ctx context.Context) (string, bool)
}

// Name implements provider.TokenProvider.
func (p *WalletTokenProvider) Name() string { return "wallet" }

// TryGetToken implements provider.TokenProvider.
func (p *WalletTokenProvider) TryGetToken(ctx context.Context) (string, bool) {
	if p.GetToken == nil {
		return "", false
	}
	return p.GetToken(ctx)
}
