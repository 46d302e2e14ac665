package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	name  string
	token string
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) TryGetToken(ctx context.Context) (string, bool) {
	return p.token, p.token != ""
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChainPrefersFirstProvider(t *testing.T) {
	chain := NewChain(testLogger(),
		&staticProvider{name: "session", token: "session-token"},
		&staticProvider{name: "wallet", token: "wallet-token"},
	)

	token, err := chain.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}

func TestChainFallsBackInOrder(t *testing.T) {
	chain := NewChain(testLogger(),
		&staticProvider{name: "session"},
		&staticProvider{name: "wallet", token: "wallet-token"},
	)

	token, err := chain.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wallet-token", token)
}

func TestChainFailsClosed(t *testing.T) {
	chain := NewChain(testLogger(),
		&staticProvider{name: "session"},
		&staticProvider{name: "wallet"},
	)

	_, err := chain.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestSessionProviderDeclinesExpiredJWT(t *testing.T) {
	expiredToken := signedJWT(t, time.Now().Add(-time.Hour))
	p := &SessionTokenProvider{
		GetSession: func(ctx context.Context) (string, bool) { return expiredToken, true },
	}

	_, ok := p.TryGetToken(context.Background())
	assert.False(t, ok)
}

func TestSessionProviderYieldsLiveJWT(t *testing.T) {
	liveToken := signedJWT(t, time.Now().Add(time.Hour))
	p := &SessionTokenProvider{
		GetSession: func(ctx context.Context) (string, bool) { return liveToken, true },
	}

	got, ok := p.TryGetToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, liveToken, got)
}
