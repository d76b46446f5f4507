package seed

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
)

/* File represents the structure of a seed file
 * Extra events extend the catalog before it is frozen;
 * subscriptions go through the registry like API-created ones
 */
type File struct {
	Events        []string             `yaml:"events"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions" validate:"dive"`
}

// SubscriptionConfig represents a single subscription in the YAML file
// Events may be a comma-separated string or a list, as in the HTTP API
type SubscriptionConfig struct {
	URL       string  `yaml:"url" validate:"required,url"`
	Events    any     `yaml:"events" validate:"required"`
	Mailboxes []int64 `yaml:"mailboxes" validate:"dive,gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the seed file is well formed
// Unknown event names are not an error here; the registry drops them
func (f *File) Validate() error {
	for _, e := range f.Events {
		if err := payload.ValidateEventType(e); err != nil {
			return fmt.Errorf("invalid extra event %q: %w", e, err)
		}
	}
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("validating subscriptions: %w", err)
	}
	for i, s := range f.Subscriptions {
		names, ok := webhook.ParseEvents(s.Events)
		if !ok {
			return fmt.Errorf("subscription %d (%s): events must be a string or a list of strings", i, s.URL)
		}
		if len(names) == 0 {
			return fmt.Errorf("subscription %d (%s): events cannot be empty", i, s.URL)
		}
	}
	return nil
}
