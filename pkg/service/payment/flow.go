// Package payment drives the card-terminal checkout state machine: create
// an external checkout, poll its status until a terminal state or the
// attempt budget runs out, and translate gateway states into internal ones.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/fees"
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/google/uuid"
)

const (
	// DefaultPollInterval is the gap between status polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxAttempts caps polling at a 5 minute ceiling (150 x 2s).
	DefaultMaxAttempts = 150
)

// Session is a snapshot of one in-flight POS transaction. One live session
// per flow instance; destroyed on terminal status or explicit reset.
type Session struct {
	CheckoutID    string      `json:"checkout_id"`
	ReferenceID   string      `json:"reference_id"`
	Status        Status      `json:"status"`
	BaseAmount    money.Money `json:"base_amount"`
	CustomerPays  money.Money `json:"customer_pays"`
	CreatedAt     time.Time   `json:"created_at"`
	AttemptCount  int         `json:"attempt_count"`
	Message       string      `json:"message,omitempty"`
	SettlementRef string      `json:"settlement_ref,omitempty"`
}

// Callbacks receive the flow's terminal outcome. OnCompleted fires exactly
// once with an opaque settlement reference; OnError fires for every other
// terminal state with the human-readable message.
type Callbacks struct {
	OnCompleted func(settlementRef string)
	OnError     func(status Status, message string)
}

// Recorder persists terminal checkout facts for the audit trail consumed by
// reconciliation. The gateway's own record stays the source of truth; this
// is the internal ledger-side fact.
type Recorder interface {
	Record(ctx context.Context, s Session) error
}

// Flow is a terminal checkout state machine. At most one poll goroutine is
// live per instance; starting a new payment fully resets any previous one so
// two pollers can never race on shared state.
type Flow struct {
	gateway      provider.TerminalGateway
	recorder     Recorder
	logger       *slog.Logger
	pollInterval time.Duration
	maxAttempts  int

	mu         sync.Mutex
	session    Session
	callbacks  Callbacks
	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

// Option configures a Flow.
type Option func(*Flow)

// WithPollInterval overrides the poll interval. Used by tests.
func WithPollInterval(d time.Duration) Option {
	return func(f *Flow) { f.pollInterval = d }
}

// WithMaxAttempts overrides the poll attempt budget.
func WithMaxAttempts(n int) Option {
	return func(f *Flow) { f.maxAttempts = n }
}

// NewFlow creates a checkout flow over the given gateway. recorder may be
// nil when no audit trail is wired.
func NewFlow(gateway provider.TerminalGateway, recorder Recorder, logger *slog.Logger, opts ...Option) *Flow {
	f := &Flow{
		gateway:      gateway,
		recorder:     recorder,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		session:      Session{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Session returns a snapshot of the current session.
func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// CreatePayment computes the customer charge for a card-paid activation,
// creates the external checkout, and starts polling its status. Any
// previously active payment is fully reset first.
func (f *Flow) CreatePayment(ctx context.Context, base money.Money, activationEventID string, cb Callbacks) (Session, error) {
	f.Reset()

	breakdown, err := fees.CalculatePOSFees(base, fees.MethodCard)
	if err != nil {
		return Session{}, err
	}

	referenceID := activationEventID
	if referenceID == "" {
		referenceID = uuid.NewString()
	}
	now := time.Now().UTC()
	deadline := now.Add(time.Duration(f.maxAttempts) * f.pollInterval)

	f.mu.Lock()
	f.session = Session{
		ReferenceID:  referenceID,
		Status:       StatusCreating,
		BaseAmount:   base,
		CustomerPays: breakdown.CustomerPays,
		CreatedAt:    now,
	}
	f.callbacks = cb
	f.mu.Unlock()

	checkout, err := f.gateway.CreateCheckout(ctx, provider.CheckoutRequest{
		AmountMinor: breakdown.CustomerPays.Amount(),
		Currency:    string(breakdown.CustomerPays.Code()),
		ReferenceID: referenceID,
		Deadline:    deadline,
	})
	if err != nil {
		f.mu.Lock()
		f.session.Status = StatusFailed
		f.session.Message = terminalMessages[StatusFailed]
		snapshot := f.session
		f.mu.Unlock()
		f.record(snapshot)
		return snapshot, fmt.Errorf("checkout creation: %w: %w", domain.ErrExternalService, err)
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	f.mu.Lock()
	f.session.CheckoutID = checkout.CheckoutID
	// PENDING is a pass-through here: the checkout exists and polling starts
	// on the same call.
	f.session.Status = StatusPolling
	f.cancelPoll = cancel
	f.pollDone = done
	snapshot := f.session
	f.mu.Unlock()

	f.logger.Info("checkout created, polling",
		"checkout_id", checkout.CheckoutID,
		"reference_id", referenceID,
		"customer_pays", breakdown.CustomerPays.String(),
	)

	go f.poll(pollCtx, checkout.CheckoutID, done)

	return snapshot, nil
}

// poll queries the gateway serially until a terminal state or attempt
// exhaustion. Serial polling also guarantees responses are processed in
// issuance order. Network errors are swallowed and retried; only the attempt
// budget ends the flow on persistent failure.
func (f *Flow) poll(ctx context.Context, checkoutID string, done chan struct{}) {
	defer close(done)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.pollInterval):
		}

		f.mu.Lock()
		f.session.AttemptCount = attempt
		f.mu.Unlock()

		status, err := f.gateway.GetCheckoutStatus(ctx, checkoutID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.logger.Warn("checkout status poll failed, retrying",
				"checkout_id", checkoutID, "attempt", attempt, "error", err)
			continue
		}

		mapped := mapGatewayStatus(status.Status)
		if !mapped.Terminal() {
			continue
		}

		var settlementRef string
		if len(status.PaymentIDs) > 0 {
			settlementRef = status.PaymentIDs[0]
		}
		f.finish(ctx, checkoutID, mapped, settlementRef)
		return
	}

	f.finish(ctx, checkoutID, StatusExpired, "")
}

// finish applies a terminal state once. The checkout ID guard drops a stale
// poller's result if a reset has already replaced the session.
func (f *Flow) finish(ctx context.Context, checkoutID string, status Status, settlementRef string) {
	f.mu.Lock()
	if f.session.CheckoutID != checkoutID || f.session.Status.Terminal() {
		f.mu.Unlock()
		return
	}
	f.session.Status = status
	f.session.Message = terminalMessages[status]
	f.session.SettlementRef = settlementRef
	snapshot := f.session
	cb := f.callbacks
	f.cancelPoll = nil
	f.mu.Unlock()

	f.logger.Info("checkout finished",
		"checkout_id", checkoutID,
		"status", status,
		"attempts", snapshot.AttemptCount,
	)
	f.record(snapshot)

	if status == StatusCompleted {
		if cb.OnCompleted != nil {
			cb.OnCompleted(settlementRef)
		}
		return
	}
	if cb.OnError != nil {
		cb.OnError(status, snapshot.Message)
	}
}

// CancelPayment stops polling and marks the session canceled immediately.
// It does not wait for external confirmation; the gateway may still settle,
// and its terminal record is reconciled against the ledger later.
func (f *Flow) CancelPayment() {
	f.mu.Lock()
	if f.session.Status.Terminal() || f.session.Status == StatusIdle {
		f.mu.Unlock()
		return
	}
	if f.cancelPoll != nil {
		f.cancelPoll()
		f.cancelPoll = nil
	}
	f.session.Status = StatusCanceled
	f.session.Message = terminalMessages[StatusCanceled]
	snapshot := f.session
	cb := f.callbacks
	f.mu.Unlock()

	f.logger.Info("checkout canceled by user", "checkout_id", snapshot.CheckoutID)
	f.record(snapshot)
	if cb.OnError != nil {
		cb.OnError(StatusCanceled, snapshot.Message)
	}
}

// Reset stops any live poller and returns the flow to IDLE with all
// identifiers cleared.
func (f *Flow) Reset() {
	f.mu.Lock()
	if f.cancelPoll != nil {
		f.cancelPoll()
		f.cancelPoll = nil
	}
	done := f.pollDone
	f.pollDone = nil
	f.mu.Unlock()

	if done != nil {
		<-done
	}

	f.mu.Lock()
	f.session = Session{Status: StatusIdle}
	f.callbacks = Callbacks{}
	f.mu.Unlock()
}

func (f *Flow) record(s Session) {
	if f.recorder == nil {
		return
	}
	// Sessions that never got a checkout have nothing to audit; persisting
	// them would collapse every failed creation into a single keyless row.
	if s.CheckoutID == "" {
		return
	}
	if err := f.recorder.Record(context.Background(), s); err != nil {
		f.logger.Error("failed to record checkout outcome",
			"checkout_id", s.CheckoutID, "status", s.Status, "error", err)
	}
}
