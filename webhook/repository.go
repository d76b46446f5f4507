package webhook

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a subscription or log entry does not exist
var ErrNotFound = errors.New("not found")

// ActiveCacheKey is the process-wide cache key for all active subscriptions
const ActiveCacheKey = "webhooks:active"

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for subscriptions
type Reader interface {
	Get(ctx context.Context, id string) (Subscription, error)
	List(ctx context.Context) ([]Subscription, error)
}

// Saver creates or replaces a subscription
type Saver interface {
	Save(ctx context.Context, sub Subscription) error
}

// RunStatusSaver updates only the run-status fields of an existing subscription
// It returns ErrNotFound instead of recreating a deleted one
type RunStatusSaver interface {
	SaveRunStatus(ctx context.Context, id string, lastRunTime time.Time, lastRunError string) error
}

// Writer provides write operations for subscriptions
type Writer interface {
	Saver
	Delete(ctx context.Context, id string) error
}

// LogReader provides read access to the delivery log
type LogReader interface {
	GetLog(ctx context.Context, id string) (LogEntry, error)
	ListLogs(ctx context.Context, subscriptionID string, limit int) ([]LogEntry, error)
}

// LogWriter appends to the delivery log and returns the new entry ID
type LogWriter interface {
	AppendLog(ctx context.Context, entry LogEntry) (string, error)
}

// Cache holds the list of active subscriptions between changes
type Cache interface {
	Active(ctx context.Context) ([]Subscription, bool, error)
	StoreActive(ctx context.Context, subs []Subscription) error
	Invalidate(ctx context.Context, key string) error
}

// DeliveryStore is what a single Run touches
type DeliveryStore interface {
	RunStatusSaver
	LogWriter
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	RunStatusSaver
	LogReader
	LogWriter
	Close(ctx context.Context) error
}
