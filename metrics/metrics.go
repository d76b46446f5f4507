package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the dispatcher.
type Metrics struct {
	// Subscriptions counts registered and currently failing subscriptions
	Subscriptions SubscriptionCounts `json:"subscriptions"`

	// Failures counts delivery log entries appended per time window
	Failures FailureWindows `json:"failures"`

	// FailuresByEvent maps event name to failed attempts in the last 15 minutes
	FailuresByEvent map[string]int64 `json:"failures_by_event"`

	// Instances lists dispatcher processes with a live heartbeat
	Instances []InstanceInfo `json:"instances"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionCounts summarizes the subscription registry.
type SubscriptionCounts struct {
	// Total is every registered subscription
	Total int64 `json:"total"`

	// Failing is subscriptions whose last run left an error
	Failing int64 `json:"failing"`
}

// FailureWindows represents failed attempts over different time windows.
type FailureWindows struct {
	LastMinute         int64 `json:"last_minute"`
	LastFiveMinutes    int64 `json:"last_five_minutes"`
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// InstanceInfo represents a running dispatcher process.
type InstanceInfo struct {
	InstanceID    string    `json:"instance_id"`
	Version       string    `json:"version"`
	Subscriptions int       `json:"subscriptions"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the dispatcher.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetSubscriptionCounts returns total and failing subscriptions
	GetSubscriptionCounts(ctx context.Context) (SubscriptionCounts, error)

	// GetFailureWindows returns failed attempts over time windows
	GetFailureWindows(ctx context.Context) (FailureWindows, error)

	// GetFailuresByEvent returns recent failed attempts per event
	GetFailuresByEvent(ctx context.Context) (map[string]int64, error)

	// GetActiveInstances returns dispatcher processes with a live heartbeat
	GetActiveInstances(ctx context.Context) ([]InstanceInfo, error)
}
