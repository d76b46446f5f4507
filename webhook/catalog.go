package webhook

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
)

var (
	ErrInvalidEvent  = errors.New("invalid event")
	ErrCatalogFrozen = errors.New("event catalog is frozen")
)

// DefaultEvents are the events the helpdesk core emits
var DefaultEvents = []string{
	"convo.assigned",
	"convo.created",
	"convo.deleted",
	"convo.deleted_forever",
	"convo.restored",
	"convo.moved",
	"convo.status",
	"convo.customer.reply.created",
	"convo.agent.reply.created",
	"convo.note.created",
	"customer.created",
	"customer.updated",
}

// FilterFunc may add or remove events when the catalog is frozen
type FilterFunc func(events []string) []string

/* Catalog collects event names during startup
 * Plugins call Register or AddFilter, then Freeze produces the immutable EventSet
 */
type Catalog struct {
	mu      sync.Mutex
	events  []string
	filters []FilterFunc
	frozen  bool
}

// NewCatalog creates a catalog seeded with DefaultEvents
func NewCatalog() *Catalog {
	return &Catalog{events: slices.Clone(DefaultEvents)}
}

// Register adds an event name; registering twice is a no-op
func (c *Catalog) Register(name string) error {
	if err := payload.ValidateEventType(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrCatalogFrozen
	}
	if !slices.Contains(c.events, name) {
		c.events = append(c.events, name)
	}
	return nil
}

// AddFilter appends a filter to the chain; filters run in registration order
func (c *Catalog) AddFilter(f FilterFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrCatalogFrozen
	}
	c.filters = append(c.filters, f)
	return nil
}

// Freeze runs the filter chain and returns the snapshot; later registrations fail
func (c *Catalog) Freeze() EventSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := slices.Clone(c.events)
	for _, f := range c.filters {
		events = f(events)
	}
	c.frozen = true

	return NewEventSet(events)
}

// EventSet is an immutable set of recognized event names
type EventSet struct {
	names []string
	index map[string]struct{}
}

// NewEventSet builds a set keeping first-seen order; invalid names are skipped
func NewEventSet(names []string) EventSet {
	s := EventSet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if payload.ValidateEventType(n) != nil {
			continue
		}
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = struct{}{}
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports whether the event is recognized
func (s EventSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// List returns a copy of the event names
func (s EventSet) List() []string {
	return slices.Clone(s.names)
}

// Len returns the number of events
func (s EventSet) Len() int {
	return len(s.names)
}

// Filter splits candidates into recognized (deduplicated) and rejected names
func (s EventSet) Filter(candidates []string) (accepted, rejected []string) {
	for _, c := range candidates {
		if !s.Contains(c) {
			rejected = append(rejected, c)
			continue
		}
		if !slices.Contains(accepted, c) {
			accepted = append(accepted, c)
		}
	}
	return accepted, rejected
}

// ParseEvents accepts a comma-separated string, []string or []any of strings
// ok is false when the value has another type
func ParseEvents(events any) (names []string, ok bool) {
	switch e := events.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(e) == "" {
			return nil, true
		}
		for _, part := range strings.Split(e, ",") {
			names = append(names, strings.TrimSpace(part))
		}
		return names, true
	case []string:
		return slices.Clone(e), true
	case []any:
		for _, v := range e {
			s, isString := v.(string)
			if !isString {
				return nil, false
			}
			names = append(names, s)
		}
		return names, true
	}
	return nil, false
}
