package payment

// Status is the internal state of a terminal checkout flow.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusCreating  Status = "CREATING"
	StatusPending   Status = "PENDING"
	StatusPolling   Status = "POLLING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether the status ends the flow.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// gatewayStatusMap translates gateway-reported checkout states into internal
// ones. Maintained as explicit data, not string comparisons scattered through
// the poll loop; anything absent from the table keeps the flow polling.
var gatewayStatusMap = map[string]Status{
	"COMPLETED":        StatusCompleted,
	"CANCELED":         StatusCanceled,
	"EXPIRED":          StatusExpired,
	"FAILED":           StatusFailed,
	"CANCEL_REQUESTED": StatusPolling,
	"PENDING":          StatusPolling,
	"IN_PROGRESS":      StatusPolling,
}

// mapGatewayStatus translates a gateway status string. Unknown states map to
// StatusPolling: the flow keeps polling rather than guessing a terminal
// outcome.
func mapGatewayStatus(gatewayStatus string) Status {
	if s, ok := gatewayStatusMap[gatewayStatus]; ok {
		return s
	}
	return StatusPolling
}

// terminalMessages are the human-readable messages surfaced with each
// terminal state, distinct from the internal status kind.
var terminalMessages = map[Status]string{
	StatusCompleted: "Payment completed",
	StatusFailed:    "Payment failed",
	StatusCanceled:  "Payment canceled",
	StatusExpired:   "Payment timed out",
}
