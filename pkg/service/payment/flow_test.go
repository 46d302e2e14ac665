package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway returns a fixed sequence of statuses, repeating the last
// one once the script runs out.
type scriptedGateway struct {
	mu         sync.Mutex
	createErr  error
	statuses   []provider.CheckoutStatus
	statusErrs []error
	polls      int32
}

func (g *scriptedGateway) CreateCheckout(ctx context.Context, req provider.CheckoutRequest) (*provider.Checkout, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &provider.Checkout{CheckoutID: "chk_123"}, nil
}

func (g *scriptedGateway) GetCheckoutStatus(ctx context.Context, checkoutID string) (*provider.CheckoutStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := int(g.polls)
	atomic.AddInt32(&g.polls, 1)
	if i >= len(g.statuses) {
		i = len(g.statuses) - 1
	}
	if g.statusErrs != nil && g.statusErrs[i] != nil {
		return nil, g.statusErrs[i]
	}
	st := g.statuses[i]
	return &st, nil
}

func (g *scriptedGateway) pollCount() int32 {
	return atomic.LoadInt32(&g.polls)
}

type memRecorder struct {
	mu       sync.Mutex
	sessions []Session
}

func (r *memRecorder) Record(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func testFlow(gw provider.TerminalGateway, rec Recorder, opts ...Option) *Flow {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	return NewFlow(gw, rec, logger, opts...)
}

func usd(t *testing.T, amount float64) money.Money {
	t.Helper()
	m, err := money.New(amount, money.USD)
	require.NoError(t, err)
	return m
}

func TestCreatePaymentComputesCustomerCharge(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: "COMPLETED"}}}
	f := testFlow(gw, nil)
	defer f.Reset()

	s, err := f.CreatePayment(context.Background(), usd(t, 100), "evt_1", Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, "chk_123", s.CheckoutID)
	assert.Equal(t, StatusPolling, s.Status)
	// 100 base + 3% card surcharge.
	assert.Equal(t, int64(10_300), s.CustomerPays.Amount())
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	f := testFlow(&scriptedGateway{}, nil)
	_, err := f.CreatePayment(context.Background(), usd(t, 0), "", Callbacks{})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreatePaymentGatewayFailure(t *testing.T) {
	gw := &scriptedGateway{createErr: errors.New("gateway down")}
	f := testFlow(gw, nil)

	_, err := f.CreatePayment(context.Background(), usd(t, 100), "", Callbacks{})
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Equal(t, StatusFailed, f.Session().Status)
}

func TestCreateFailureIsNotRecorded(t *testing.T) {
	gw := &scriptedGateway{createErr: errors.New("gateway down")}
	rec := &memRecorder{}
	f := testFlow(gw, rec)

	_, err := f.CreatePayment(context.Background(), usd(t, 100), "", Callbacks{})
	require.ErrorIs(t, err, domain.ErrExternalService)

	// The session never got a checkout ID, so nothing must hit the audit
	// store.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.sessions)
}

func TestFlowCompletesAfterPendingPolls(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{
		{Status: "PENDING"},
		{Status: "PENDING"},
		{Status: "PENDING"},
		{Status: "COMPLETED", PaymentIDs: []string{"pay_789"}},
	}}
	rec := &memRecorder{}
	f := testFlow(gw, rec)

	var completions int32
	done := make(chan string, 1)
	_, err := f.CreatePayment(context.Background(), usd(t, 100), "evt_1", Callbacks{
		OnCompleted: func(ref string) {
			atomic.AddInt32(&completions, 1)
			done <- ref
		},
	})
	require.NoError(t, err)

	select {
	case ref := <-done:
		assert.Equal(t, "pay_789", ref)
	case <-time.After(2 * time.Second):
		t.Fatal("flow did not complete")
	}

	assert.Equal(t, StatusCompleted, f.Session().Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&completions), "success callback must fire exactly once")

	// No further polls after completion.
	settled := gw.pollCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, gw.pollCount())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.sessions, 1)
	assert.Equal(t, StatusCompleted, rec.sessions[0].Status)
	assert.Equal(t, "pay_789", rec.sessions[0].SettlementRef)
}

func TestFlowExpiresAfterAttemptBudget(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: "PENDING"}}}
	f := testFlow(gw, nil, WithMaxAttempts(10))

	done := make(chan struct{})
	var gotStatus Status
	var gotMessage string
	_, err := f.CreatePayment(context.Background(), usd(t, 50), "", Callbacks{
		OnError: func(status Status, message string) {
			gotStatus = status
			gotMessage = message
			close(done)
		},
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flow did not expire")
	}

	assert.Equal(t, StatusExpired, gotStatus)
	assert.Equal(t, "Payment timed out", gotMessage)
	assert.Equal(t, StatusExpired, f.Session().Status)
	assert.EqualValues(t, 10, gw.pollCount())

	// Polling stopped at the budget.
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 10, gw.pollCount())
}

func TestPollSwallowsNetworkErrors(t *testing.T) {
	gw := &scriptedGateway{
		statuses: []provider.CheckoutStatus{
			{},
			{},
			{Status: "COMPLETED", PaymentIDs: []string{"pay_1"}},
		},
		statusErrs: []error{
			errors.New("connection reset"),
			errors.New("timeout"),
			nil,
		},
	}
	f := testFlow(gw, nil)

	done := make(chan struct{})
	_, err := f.CreatePayment(context.Background(), usd(t, 25), "", Callbacks{
		OnCompleted: func(string) { close(done) },
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flow did not recover from poll errors")
	}
	assert.Equal(t, StatusCompleted, f.Session().Status)
}

func TestCanceledAndExpiredGatewayStates(t *testing.T) {
	tests := []struct {
		gatewayStatus string
		want          Status
		wantMessage   string
	}{
		{gatewayStatus: "CANCELED", want: StatusCanceled, wantMessage: "Payment canceled"},
		{gatewayStatus: "EXPIRED", want: StatusExpired, wantMessage: "Payment timed out"},
		{gatewayStatus: "FAILED", want: StatusFailed, wantMessage: "Payment failed"},
	}
	for _, tt := range tests {
		t.Run(tt.gatewayStatus, func(t *testing.T) {
			gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: tt.gatewayStatus}}}
			f := testFlow(gw, nil)

			done := make(chan struct{})
			var gotMessage string
			_, err := f.CreatePayment(context.Background(), usd(t, 10), "", Callbacks{
				OnError: func(_ Status, message string) {
					gotMessage = message
					close(done)
				},
			})
			require.NoError(t, err)

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("flow did not reach terminal state")
			}
			assert.Equal(t, tt.want, f.Session().Status)
			assert.Equal(t, tt.wantMessage, gotMessage)
		})
	}
}

func TestCancelPaymentStopsPollingImmediately(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: "PENDING"}}}
	f := testFlow(gw, nil, WithPollInterval(5*time.Millisecond))

	canceled := make(chan struct{})
	_, err := f.CreatePayment(context.Background(), usd(t, 10), "", Callbacks{
		OnError: func(status Status, _ string) {
			if status == StatusCanceled {
				close(canceled)
			}
		},
	})
	require.NoError(t, err)

	f.CancelPayment()
	<-canceled
	assert.Equal(t, StatusCanceled, f.Session().Status)

	settled := gw.pollCount()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, gw.pollCount(), "no polls after cancel")
}

func TestCreatePaymentResetsPreviousSession(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: "PENDING"}}}
	f := testFlow(gw, nil)
	defer f.Reset()

	_, err := f.CreatePayment(context.Background(), usd(t, 10), "evt_1", Callbacks{})
	require.NoError(t, err)

	s, err := f.CreatePayment(context.Background(), usd(t, 20), "evt_2", Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, "evt_2", s.ReferenceID)
	assert.Equal(t, int64(2060), s.CustomerPays.Amount())
}

func TestResetReturnsToIdle(t *testing.T) {
	gw := &scriptedGateway{statuses: []provider.CheckoutStatus{{Status: "PENDING"}}}
	f := testFlow(gw, nil)

	_, err := f.CreatePayment(context.Background(), usd(t, 10), "", Callbacks{})
	require.NoError(t, err)

	f.Reset()
	s := f.Session()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.CheckoutID)
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"COMPLETED", StatusCompleted},
		{"CANCELED", StatusCanceled},
		{"EXPIRED", StatusExpired},
		{"FAILED", StatusFailed},
		{"CANCEL_REQUESTED", StatusPolling},
		{"PENDING", StatusPolling},
		{"IN_PROGRESS", StatusPolling},
		{"SOMETHING_NEW", StatusPolling},
		{"", StatusPolling},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapGatewayStatus(tt.in), "status %q", tt.in)
	}
}
