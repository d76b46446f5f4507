package webhook

import (
	"time"

	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
)

/* LogEntry records one failed delivery attempt
 * Entries are append-only; SubscriptionID is a weak reference and
 * CorrelationID links a retry to the entry it re-attempts
 */
type LogEntry struct {
	ID             string
	SubscriptionID string
	Event          string
	StatusCode     int // 0 means the request never got an HTTP response
	Payload        payload.Payload
	Error          string
	CorrelationID  string
	CreatedAt      time.Time
}

// TransportFailure reports whether the attempt failed below HTTP
func (e LogEntry) TransportFailure() bool {
	return e.StatusCode == 0
}
