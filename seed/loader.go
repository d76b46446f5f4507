package seed

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"gopkg.in/yaml.v3"
)

// Loader holds a parsed seed file
type Loader struct {
	file File
}

// Result summarizes what Apply did
type Result struct {
	Created  []webhook.Subscription
	Skipped  []string // URLs already registered
	Rejected []string // event names the catalog does not know
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the seed file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes and validates seed YAML
func (l *Loader) Parse(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("validating seed: %w", err)
	}
	l.file = f
	return nil
}

// Events returns the extra event names
func (l *Loader) Events() []string {
	return slices.Clone(l.file.Events)
}

// Subscriptions returns the seeded subscriptions
func (l *Loader) Subscriptions() []SubscriptionConfig {
	return slices.Clone(l.file.Subscriptions)
}

// RegisterEvents adds the extra events to a catalog that is not frozen yet
func (l *Loader) RegisterEvents(c *webhook.Catalog) error {
	for _, e := range l.file.Events {
		if err := c.Register(e); err != nil {
			return fmt.Errorf("registering event %s: %w", e, err)
		}
	}
	return nil
}

// Apply creates every seeded subscription whose URL is not registered yet
// Running it twice against the same store creates nothing the second time
func (l *Loader) Apply(ctx context.Context, uc webhook.UseCase) (Result, error) {
	existing, err := uc.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing webhooks: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		known[s.URL] = struct{}{}
	}

	var res Result
	for _, sc := range l.file.Subscriptions {
		if _, ok := known[sc.URL]; ok {
			res.Skipped = append(res.Skipped, sc.URL)
			continue
		}

		cr, err := uc.CreateWithMailboxes(ctx, sc.URL, sc.Events, sc.Mailboxes)
		if err != nil {
			return res, fmt.Errorf("creating webhook for %s: %w", sc.URL, err)
		}
		res.Rejected = append(res.Rejected, cr.Rejected...)
		if !cr.Created() {
			continue
		}
		known[sc.URL] = struct{}{}
		res.Created = append(res.Created, *cr.Subscription)
	}
	return res, nil
}
