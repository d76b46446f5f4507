package webhook

import "fmt"

/* Status is the result of a single delivery attempt
 * Delivered is the only success; Rejected and Unreachable always leave a log entry
 */
type Status int

const (
	Delivered   Status = iota + 1
	Rejected           // non-2xx response
	Unreachable        // transport failure, logged with status code 0
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Delivered || s > Unreachable {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFailure returns true if the attempt left a log entry
func (s Status) IsFailure() bool {
	return s == Rejected || s == Unreachable
}

// Outcome describes what one Run call did
type Outcome struct {
	Success    bool
	Status     Status
	StatusCode int
	Error      string
	LogID      string
	Branch     Branch
}
