package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Event names recorded by the flow controller and API client.
const (
	EventQuoteRequested  = "quote_requested"
	EventQuoteFailed     = "quote_failed"
	EventExecuteStarted  = "execute_started"
	EventExecuteSuccess  = "execute_success"
	EventExecuteFailed   = "execute_failed"
	EventPinRejected     = "pin_rejected"
	EventSessionExpired  = "session_expired"
	EventStaleDiscarded  = "stale_response_discarded"
	EventTargetVerified  = "target_verified"
	EventTargetUnmatched = "target_unmatched"
)
