// Package auth resolves an outbound bearer credential from an ordered list
// of providers. Two identity systems coexist during the wallet migration: a
// primary session-based provider and an alternate wallet-based one. The
// chain tries them in priority order and fails closed when none yields a
// token.
package auth

import (
	"context"
	"log/slog"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/provider"
)

// Chain tries credential providers in the order given.
type Chain struct {
	providers []provider.TokenProvider
	logger    *slog.Logger
}

// NewChain creates a chain over the given providers. Order is priority.
func NewChain(logger *slog.Logger, providers ...provider.TokenProvider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Token returns the first credential any provider yields, or
// domain.ErrNotAuthenticated when all decline.
func (c *Chain) Token(ctx context.Context) (string, error) {
	for _, p := range c.providers {
		if token, ok := p.TryGetToken(ctx); ok {
			c.logger.Debug("credential resolved", "provider", p.Name())
			return token, nil
		}
		c.logger.Debug("credential provider declined", "provider", p.Name())
	}
	return "", domain.ErrNotAuthenticated
}
