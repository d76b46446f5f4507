package webhook

import (
	"fmt"

	"github.com/marcelsud/helpdesk-webhooks/webhook/slack"
)

/* Branch represents how a payload is shaped for its destination
 * Chat sends a single text digest without signature
 * Signed sends the canonical payload with event and signature headers
 */
type Branch int

const (
	Signed Branch = iota + 1
	Chat
)

// String returns the string representation of the branch
func (b Branch) String() string {
	switch b {
	case Signed:
		return "signed"
	case Chat:
		return "chat"
	default:
		return "unknown"
	}
}

// Validate checks if the branch is valid
func (b Branch) Validate() error {
	if b != Signed && b != Chat {
		return fmt.Errorf("invalid branch: %d", b)
	}
	return nil
}

// BranchFor classifies a destination URL
func BranchFor(url string) Branch {
	if slack.IsChatURL(url) {
		return Chat
	}
	return Signed
}
