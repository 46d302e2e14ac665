// Package banklink exchanges short-lived aggregator link tokens for
// persisted linked bank accounts.
package banklink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinedge/bitcard/pkg/auth"
	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/google/uuid"
)

// Account is a linked bank account. Append-only: accounts are created on a
// successful token exchange and never mutated (revocation is handled
// elsewhere).
type Account struct {
	AccountID   string    `json:"account_id"`
	UserID      uuid.UUID `json:"user_id"`
	BankName    string    `json:"bank_name"`
	AccountMask string    `json:"account_mask"`
	LinkedAt    time.Time `json:"linked_at"`
}

// Fingerprint identifies an account across repeated exchanges of the same
// public token. Deduplication keys on it so re-exchanging never creates
// duplicates.
func (a Account) Fingerprint() string {
	return a.BankName + ":" + a.AccountMask
}

// Repository is the per-user bank-accounts store.
type Repository interface {
	// Upsert persists the account unless one with the same user and
	// fingerprint already exists. Reports whether a new row was created.
	Upsert(ctx context.Context, account Account) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Account, error)
}

// Service drives the bank-link flow against the external aggregator.
type Service struct {
	aggregator provider.BankAggregator
	creds      *auth.Chain
	repo       Repository
	logger     *slog.Logger
}

// New creates a bank-link service.
func New(aggregator provider.BankAggregator, creds *auth.Chain, repo Repository, logger *slog.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		creds:      creds,
		repo:       repo,
		logger:     logger,
	}
}

// CreateLinkToken requests a short-lived link token for the UI to open the
// aggregator's account picker. An unconfigured aggregator surfaces
// domain.ErrNotConfigured so operators can tell missing setup from an
// outage.
func (s *Service) CreateLinkToken(ctx context.Context) (string, error) {
	if !s.aggregator.Configured() {
		return "", domain.ErrNotConfigured
	}
	userToken, err := s.creds.Token(ctx)
	if err != nil {
		return "", err
	}
	linkToken, err := s.aggregator.CreateLinkToken(ctx, userToken)
	if err != nil {
		return "", fmt.Errorf("link token creation: %w: %w", domain.ErrExternalService, err)
	}
	return linkToken, nil
}

// ExchangeToken swaps the public token from a completed account selection
// for persisted account metadata. Idempotent: re-exchanging the same public
// token leaves the store unchanged.
func (s *Service) ExchangeToken(ctx context.Context, userID uuid.UUID, publicToken string) ([]Account, error) {
	if !s.aggregator.Configured() {
		return nil, domain.ErrNotConfigured
	}
	// Resolve a caller credential before touching the aggregator: session
	// provider first, wallet fallback, else fail closed.
	if _, err := s.creds.Token(ctx); err != nil {
		return nil, err
	}

	linked, err := s.aggregator.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("public token exchange: %w: %w", domain.ErrExternalService, err)
	}

	exchanged := make(map[string]bool, len(linked))
	for _, la := range linked {
		account := Account{
			AccountID:   uuid.NewString(),
			UserID:      userID,
			BankName:    la.BankName,
			AccountMask: la.Mask,
			LinkedAt:    time.Now().UTC(),
		}
		exchanged[account.Fingerprint()] = true
		created, err := s.repo.Upsert(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("persisting linked account: %w", err)
		}
		if created {
			s.logger.Info("bank account linked",
				"user_id", userID,
				"bank", account.BankName,
				"mask", account.AccountMask,
			)
		} else {
			s.logger.Debug("bank account already linked, skipping",
				"user_id", userID,
				"fingerprint", account.Fingerprint(),
			)
		}
	}

	// Answer from the store, not from the candidates above: on a re-exchange
	// the upsert keeps the original row, so the persisted account IDs are the
	// ones the caller must see.
	stored, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading linked accounts: %w", err)
	}
	accounts := make([]Account, 0, len(linked))
	for _, a := range stored {
		if exchanged[a.Fingerprint()] {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

// Accounts lists the user's linked accounts.
func (s *Service) Accounts(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	return s.repo.ListByUser(ctx, userID)
}
