package webhook

import (
	"slices"
	"time"
)

const (
	// MaxAttempts caps how many log entries one logical delivery may chain
	MaxAttempts = 10

	// DeliveryTimeout bounds a single delivery attempt end to end
	DeliveryTimeout = 30 * time.Second

	HeaderEvent     = "X-FreeScout-Event"
	HeaderSignature = "X-FreeScout-Signature"
)

/* Subscription maps a destination URL to the events it is notified for
 * Uses value semantics as it represents data, not behavior
 */
type Subscription struct {
	ID           string
	URL          string
	Events       []string
	Mailboxes    []int64 // empty means every mailbox
	LastRunTime  time.Time
	LastRunError string
}

// Subscribed reports whether the subscription listens to the event
func (s Subscription) Subscribed(event string) bool {
	return slices.Contains(s.Events, event)
}

// Matches reports whether an event raised in a mailbox should reach this subscription
// mailboxID 0 marks events that do not belong to a mailbox (customer events)
func (s Subscription) Matches(event string, mailboxID int64) bool {
	if !s.Subscribed(event) {
		return false
	}
	if len(s.Mailboxes) == 0 || mailboxID == 0 {
		return true
	}
	return slices.Contains(s.Mailboxes, mailboxID)
}
