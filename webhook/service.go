package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrMaxAttempts is returned by Retry once a delivery chain holds MaxAttempts entries
var ErrMaxAttempts = errors.New("max attempts reached")

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the business operations for webhook management
type UseCase interface {
	Create(ctx context.Context, url string, events any) (CreateResult, error)
	CreateWithMailboxes(ctx context.Context, url string, events any, mailboxes []int64) (CreateResult, error)
	Get(ctx context.Context, id string) (Subscription, error)
	List(ctx context.Context) ([]Subscription, error)
	Delete(ctx context.Context, id string) error
	Events() []string
	Logs(ctx context.Context, subscriptionID string, limit int) ([]LogEntry, error)
	Fire(ctx context.Context, event string, entity any, mailboxID int64) ([]Delivery, error)
	Retry(ctx context.Context, logID string) (Outcome, error)
}

// CreateResult carries the created subscription and the event names that were dropped
// Subscription is nil when the request was rejected
type CreateResult struct {
	Subscription *Subscription
	Rejected     []string
}

// Created reports whether a subscription was persisted
func (r CreateResult) Created() bool {
	return r.Subscription != nil
}

// Delivery is the outcome of one subscription during Fire
type Delivery struct {
	SubscriptionID string
	Outcome        Outcome
}

type Service struct {
	Repo        Repository
	Cache       Cache
	Runner      Runner
	events      EventSet
	logger      zerolog.Logger
	concurrency int
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithConcurrency limits parallel deliveries during Fire
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithServiceLogger sets the structured logger
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new webhook service with dependency injection
func NewService(repo Repository, cache Cache, runner Runner, events EventSet, opts ...ServiceOption) *Service {
	s := &Service{
		Repo:        repo,
		Cache:       cache,
		Runner:      runner,
		events:      events,
		logger:      zerolog.Nop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a subscription for every recognized event in events
func (s *Service) Create(ctx context.Context, url string, events any) (CreateResult, error) {
	return s.CreateWithMailboxes(ctx, url, events, nil)
}

// CreateWithMailboxes is Create restricted to the given mailboxes
// Rejections are not errors: the result simply carries no subscription
func (s *Service) CreateWithMailboxes(ctx context.Context, url string, events any, mailboxes []int64) (CreateResult, error) {
	names, ok := ParseEvents(events)
	if strings.TrimSpace(url) == "" || !ok || len(names) == 0 {
		return CreateResult{Rejected: names}, nil
	}

	accepted, rejected := s.events.Filter(names)
	if len(accepted) == 0 {
		return CreateResult{Rejected: rejected}, nil
	}

	sub := Subscription{
		ID:        uuid.New().String(),
		URL:       url,
		Events:    accepted,
		Mailboxes: mailboxes,
	}
	if err := s.Repo.Save(ctx, sub); err != nil {
		return CreateResult{}, fmt.Errorf("saving webhook: %w", err)
	}
	s.invalidate(ctx)

	return CreateResult{Subscription: &sub, Rejected: rejected}, nil
}

// Get returns a subscription by ID
func (s *Service) Get(ctx context.Context, id string) (Subscription, error) {
	sub, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Subscription{}, fmt.Errorf("getting webhook: %w", err)
	}
	return sub, nil
}

// List returns every subscription
func (s *Service) List(ctx context.Context) ([]Subscription, error) {
	subs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	return subs, nil
}

// Delete removes a subscription; its log entries are kept
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Events returns the recognized event catalog
func (s *Service) Events() []string {
	return s.events.List()
}

// Logs returns the newest delivery log entries of a subscription
func (s *Service) Logs(ctx context.Context, subscriptionID string, limit int) ([]LogEntry, error) {
	entries, err := s.Repo.ListLogs(ctx, subscriptionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing delivery logs: %w", err)
	}
	return entries, nil
}

// Fire delivers the event to every matching subscription
// Delivery failures are part of the returned outcomes, never errors
func (s *Service) Fire(ctx context.Context, event string, entity any, mailboxID int64) ([]Delivery, error) {
	if !s.events.Contains(event) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEvent, event)
	}

	subs, err := s.active(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active webhooks: %w", err)
	}

	var matched []Subscription
	for _, sub := range subs {
		if sub.Matches(event, mailboxID) {
			matched = append(matched, sub)
		}
	}

	deliveries := make([]Delivery, len(matched))
	errs := make([]error, len(matched))
	gone := make([]bool, len(matched))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range matched {
		g.Go(func() error {
			sub := matched[i]
			outcome, err := s.Runner.Run(ctx, &sub, event, entity, "")
			if errors.Is(err, ErrNotFound) {
				// stale cache entry for a deleted subscription
				gone[i] = true
				s.logger.Debug().Str("webhook_id", sub.ID).Msg("skipping deleted webhook")
				return nil
			}
			deliveries[i] = Delivery{SubscriptionID: sub.ID, Outcome: outcome}
			if err != nil {
				errs[i] = fmt.Errorf("running webhook %s: %w", sub.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	kept := deliveries[:0]
	for i, d := range deliveries {
		if !gone[i] {
			kept = append(kept, d)
		}
	}
	deliveries = kept

	s.logger.Info().
		Str("event", event).
		Int64("mailbox_id", mailboxID).
		Int("matched", len(matched)).
		Msg("event dispatched")

	return deliveries, errors.Join(errs...)
}

// Retry re-attempts a failed delivery with the payload stored in its log entry
// The new attempt is chained to logID through the correlation ID
func (s *Service) Retry(ctx context.Context, logID string) (Outcome, error) {
	entry, err := s.Repo.GetLog(ctx, logID)
	if err != nil {
		return Outcome{}, fmt.Errorf("getting delivery log: %w", err)
	}

	attempts, err := s.chainLength(ctx, entry)
	if err != nil {
		return Outcome{}, err
	}
	if attempts >= MaxAttempts {
		return Outcome{}, fmt.Errorf("retrying %s after %d attempts: %w", logID, attempts, ErrMaxAttempts)
	}

	sub, err := s.Repo.Get(ctx, entry.SubscriptionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("getting webhook: %w", err)
	}

	outcome, err := s.Runner.Run(ctx, &sub, entry.Event, entry.Payload, entry.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("running webhook %s: %w", sub.ID, err)
	}
	return outcome, nil
}

// chainLength counts the entries linked through correlation IDs, entry included
func (s *Service) chainLength(ctx context.Context, entry LogEntry) (int, error) {
	n := 1
	for cur := entry; cur.CorrelationID != "" && n < MaxAttempts; n++ {
		prev, err := s.Repo.GetLog(ctx, cur.CorrelationID)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("walking delivery chain: %w", err)
		}
		cur = prev
	}
	return n, nil
}

// active reads through the cache; cache failures only cost a store read
func (s *Service) active(ctx context.Context) ([]Subscription, error) {
	if s.Cache != nil {
		subs, ok, err := s.Cache.Active(ctx)
		if err == nil && ok {
			return subs, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("reading active webhooks cache")
		}
	}

	subs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.StoreActive(ctx, subs); err != nil {
			s.logger.Warn().Err(err).Msg("storing active webhooks cache")
		}
	}
	return subs, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, ActiveCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("invalidating active webhooks cache")
	}
}
