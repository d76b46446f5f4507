package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.Repository and webhook.Cache
 * Uses Redis Hashes for subscriptions, a Set as the id index,
 * a Redis Stream as the append-only delivery log and one List per
 * subscription indexing its log entries, newest first
 */

const (
	HashPrefix = "webhook"          // Hash naming: webhook:{id}
	IDsKey     = "webhooks:ids"     // Set of every subscription id
	LogStream  = "webhooks:logs"    // Stream of failed delivery attempts
	logIndex   = "logs"             // List naming: webhook:{id}:logs
	activeKey  = webhook.ActiveCacheKey

	// ActiveTTL bounds how long a stale active list can survive a missed invalidation
	ActiveTTL = 10 * time.Minute

	maxStreamLen = 100_000
	maxIndexLen  = 1_000
)

type Repository struct {
	client *redis.Client
}

var (
	_ webhook.Repository = (*Repository)(nil)
	_ webhook.Cache      = (*Repository)(nil)
)

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// NewRepositoryFromClient wraps an existing client
func NewRepositoryFromClient(client *redis.Client) *Repository {
	return &Repository{client: client}
}

// Save creates or replaces a subscription
func (r *Repository) Save(ctx context.Context, sub webhook.Subscription) error {
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}
	mailboxes, err := json.Marshal(sub.Mailboxes)
	if err != nil {
		return fmt.Errorf("marshaling mailboxes: %w", err)
	}

	lastRun := ""
	if !sub.LastRunTime.IsZero() {
		lastRun = sub.LastRunTime.UTC().Format(time.RFC3339Nano)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HashKey(sub.ID), map[string]interface{}{
			"id":             sub.ID,
			"url":            sub.URL,
			"events":         string(events),
			"mailboxes":      string(mailboxes),
			"last_run_time":  lastRun,
			"last_run_error": sub.LastRunError,
		})
		pipe.SAdd(ctx, IDsKey, sub.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing webhook: %w", err)
	}
	return nil
}

// saveRunStatusScript touches only the run-status fields, and only while the hash exists
var saveRunStatusScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "last_run_time", ARGV[1], "last_run_error", ARGV[2])
return 1
`)

// SaveRunStatus updates last_run_time and last_run_error of an existing subscription
// A deleted subscription is reported as webhook.ErrNotFound and stays deleted
func (r *Repository) SaveRunStatus(ctx context.Context, id string, lastRunTime time.Time, lastRunError string) error {
	lastRun := ""
	if !lastRunTime.IsZero() {
		lastRun = lastRunTime.UTC().Format(time.RFC3339Nano)
	}

	updated, err := saveRunStatusScript.Run(ctx, r.client, []string{HashKey(id)}, lastRun, lastRunError).Int()
	if err != nil {
		return fmt.Errorf("saving run status: %w", err)
	}
	if updated == 0 {
		return webhook.ErrNotFound
	}
	return nil
}

// Get retrieves a subscription by ID
func (r *Repository) Get(ctx context.Context, id string) (webhook.Subscription, error) {
	data, err := r.client.HGetAll(ctx, HashKey(id)).Result()
	if err != nil {
		return webhook.Subscription{}, fmt.Errorf("getting webhook: %w", err)
	}
	if len(data) == 0 {
		return webhook.Subscription{}, fmt.Errorf("webhook %s: %w", id, webhook.ErrNotFound)
	}
	return decodeSubscription(data)
}

// List returns every subscription ordered by ID
func (r *Repository) List(ctx context.Context) ([]webhook.Subscription, error) {
	ids, err := r.client.SMembers(ctx, IDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing webhook ids: %w", err)
	}
	sort.Strings(ids)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, HashKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("executing pipeline: %w", err)
		}
	}

	subs := make([]webhook.Subscription, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			// id left behind by a concurrent delete
			continue
		}
		sub, err := decodeSubscription(data)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Delete removes a subscription; its delivery log stays
func (r *Repository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, HashKey(id))
		pipe.SRem(ctx, IDsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("webhook %s: %w", id, webhook.ErrNotFound)
	}
	return nil
}

// AppendLog adds a failed attempt to the stream and indexes it under its subscription
// The stream entry ID is the log ID
func (r *Repository) AppendLog(ctx context.Context, entry webhook.LogEntry) (string, error) {
	body, err := entry.Payload.Bytes()
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: LogStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"subscription_id": entry.SubscriptionID,
			"event":           entry.Event,
			"status_code":     entry.StatusCode,
			"payload":         string(body),
			"error":           entry.Error,
			"correlation_id":  entry.CorrelationID,
			"created_at":      createdAt.UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("adding to stream: %w", err)
	}

	indexKey := LogIndexKey(entry.SubscriptionID)
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, indexKey, id)
		pipe.LTrim(ctx, indexKey, 0, maxIndexLen-1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("indexing log entry: %w", err)
	}

	return id, nil
}

// GetLog retrieves one delivery log entry
func (r *Repository) GetLog(ctx context.Context, id string) (webhook.LogEntry, error) {
	if !validStreamID(id) {
		return webhook.LogEntry{}, fmt.Errorf("log entry %s: %w", id, webhook.ErrNotFound)
	}
	msgs, err := r.client.XRange(ctx, LogStream, id, id).Result()
	if err != nil {
		return webhook.LogEntry{}, fmt.Errorf("reading stream: %w", err)
	}
	if len(msgs) == 0 {
		return webhook.LogEntry{}, fmt.Errorf("log entry %s: %w", id, webhook.ErrNotFound)
	}
	return decodeLogEntry(msgs[0])
}

// ListLogs returns up to limit entries of a subscription, newest first
// Entries trimmed from the stream are skipped
func (r *Repository) ListLogs(ctx context.Context, subscriptionID string, limit int) ([]webhook.LogEntry, error) {
	if limit <= 0 {
		return []webhook.LogEntry{}, nil
	}
	ids, err := r.client.LRange(ctx, LogIndexKey(subscriptionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading log index: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.XMessageSliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.XRange(ctx, LogStream, id, id)
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("executing pipeline: %w", err)
		}
	}

	entries := make([]webhook.LogEntry, 0, len(ids))
	for _, cmd := range cmds {
		msgs, err := cmd.Result()
		if err != nil || len(msgs) == 0 {
			continue
		}
		entry, err := decodeLogEntry(msgs[0])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Active returns the cached active list; ok is false on a miss
func (r *Repository) Active(ctx context.Context) ([]webhook.Subscription, bool, error) {
	data, err := r.client.Get(ctx, activeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading active cache: %w", err)
	}
	var subs []webhook.Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, false, fmt.Errorf("unmarshaling active cache: %w", err)
	}
	return subs, true, nil
}

// StoreActive caches the active list for ActiveTTL
func (r *Repository) StoreActive(ctx context.Context, subs []webhook.Subscription) error {
	if subs == nil {
		subs = []webhook.Subscription{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("marshaling active cache: %w", err)
	}
	if err := r.client.Set(ctx, activeKey, data, ActiveTTL).Err(); err != nil {
		return fmt.Errorf("writing active cache: %w", err)
	}
	return nil
}

// Invalidate drops a cache key
func (r *Repository) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidating %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// HashKey returns the hash holding a subscription
func HashKey(id string) string {
	return fmt.Sprintf("%s:%s", HashPrefix, id)
}

// LogIndexKey returns the list indexing a subscription's log entries
func LogIndexKey(subscriptionID string) string {
	return fmt.Sprintf("%s:%s:%s", HashPrefix, subscriptionID, logIndex)
}

func decodeSubscription(data map[string]string) (webhook.Subscription, error) {
	sub := webhook.Subscription{
		ID:           data["id"],
		URL:          data["url"],
		LastRunError: data["last_run_error"],
	}
	if s := data["events"]; s != "" {
		if err := json.Unmarshal([]byte(s), &sub.Events); err != nil {
			return webhook.Subscription{}, fmt.Errorf("unmarshaling events: %w", err)
		}
	}
	if s := data["mailboxes"]; s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &sub.Mailboxes); err != nil {
			return webhook.Subscription{}, fmt.Errorf("unmarshaling mailboxes: %w", err)
		}
	}
	if s := data["last_run_time"]; s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return webhook.Subscription{}, fmt.Errorf("parsing last_run_time: %w", err)
		}
		sub.LastRunTime = t
	}
	return sub, nil
}

func decodeLogEntry(msg redis.XMessage) (webhook.LogEntry, error) {
	field := func(k string) string {
		s, _ := msg.Values[k].(string)
		return s
	}

	entry := webhook.LogEntry{
		ID:             msg.ID,
		SubscriptionID: field("subscription_id"),
		Event:          field("event"),
		Error:          field("error"),
		CorrelationID:  field("correlation_id"),
	}
	code, err := strconv.Atoi(field("status_code"))
	if err != nil {
		return webhook.LogEntry{}, fmt.Errorf("parsing status_code of %s: %w", msg.ID, err)
	}
	entry.StatusCode = code

	if s := field("payload"); s != "" && s != "null" {
		p, err := payload.Parse([]byte(s))
		if err != nil {
			return webhook.LogEntry{}, fmt.Errorf("decoding payload of %s: %w", msg.ID, err)
		}
		entry.Payload = p
	}
	if s := field("created_at"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			entry.CreatedAt = t
		}
	}
	return entry, nil
}

// validStreamID accepts the <ms>-<seq> form Redis assigns
func validStreamID(id string) bool {
	ms, seq, ok := strings.Cut(id, "-")
	if !ok {
		return false
	}
	if _, err := strconv.ParseUint(ms, 10, 64); err != nil {
		return false
	}
	_, err := strconv.ParseUint(seq, 10, 64)
	return err == nil
}
