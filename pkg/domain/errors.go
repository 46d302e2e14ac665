package domain

import "errors"

// Core domain errors. Handlers map these to HTTP status codes at the API
// boundary; internal callers match with errors.Is.
var (
	// ErrInvalidAmount is returned when an amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUnsupportedTransferType is returned for an unknown quote type.
	ErrUnsupportedTransferType = errors.New("unsupported transfer type")
	// ErrQuoteExpired is returned when a quote is used past its validity window.
	ErrQuoteExpired = errors.New("quote expired")
	// ErrAllSourcesUnavailable is returned when every price source failed and
	// no cached price exists.
	ErrAllSourcesUnavailable = errors.New("all price sources unavailable")
	// ErrRateLimited is returned when a client exceeds its request quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotAuthenticated is returned when no credential provider yields a token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotConfigured is returned when an integration is disabled by the
	// operator. Distinct from a transient upstream failure.
	ErrNotConfigured = errors.New("integration not configured")
	// ErrInvalidStateTransition is returned for an illegal lifecycle change,
	// e.g. resolving a reconciliation record that is not in discrepancy.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrExternalService wraps an opaque upstream failure.
	ErrExternalService = errors.New("external service error")
)
