package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	webhookredis "github.com/marcelsud/helpdesk-webhooks/webhook/redis"
	"github.com/redis/go-redis/v9"
)

const recentWindow = 15 * time.Minute

// RedisCollector implements the Collector interface for Redis-backed metrics
type RedisCollector struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client) *RedisCollector {
	return &RedisCollector{
		client: client,
		now:    time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	subs, err := c.GetSubscriptionCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting subscription counts: %w", err)
	}

	msgs, err := c.recentFailures(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting recent failures: %w", err)
	}
	windows, byEvent := bucketFailures(msgs, c.now())

	instances, err := c.GetActiveInstances(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active instances: %w", err)
	}

	return Metrics{
		Subscriptions:   subs,
		Failures:        windows,
		FailuresByEvent: byEvent,
		Instances:       instances,
		Timestamp:       c.now(),
	}, nil
}

// GetSubscriptionCounts counts subscriptions and those with a pending error
func (c *RedisCollector) GetSubscriptionCounts(ctx context.Context) (SubscriptionCounts, error) {
	ids, err := c.client.SMembers(ctx, webhookredis.IDsKey).Result()
	if err != nil {
		return SubscriptionCounts{}, fmt.Errorf("listing webhook ids: %w", err)
	}
	if len(ids) == 0 {
		return SubscriptionCounts{}, nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, webhookredis.HashKey(id), "last_run_error")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return SubscriptionCounts{}, fmt.Errorf("executing pipeline: %w", err)
	}

	counts := SubscriptionCounts{Total: int64(len(ids))}
	for _, cmd := range cmds {
		if v, err := cmd.Result(); err == nil && v != "" {
			counts.Failing++
		}
	}
	return counts, nil
}

// GetFailureWindows counts delivery log entries appended recently
func (c *RedisCollector) GetFailureWindows(ctx context.Context) (FailureWindows, error) {
	msgs, err := c.recentFailures(ctx)
	if err != nil {
		return FailureWindows{}, err
	}
	windows, _ := bucketFailures(msgs, c.now())
	return windows, nil
}

// GetFailuresByEvent counts recent delivery log entries per event
func (c *RedisCollector) GetFailuresByEvent(ctx context.Context) (map[string]int64, error) {
	msgs, err := c.recentFailures(ctx)
	if err != nil {
		return nil, err
	}
	_, byEvent := bucketFailures(msgs, c.now())
	return byEvent, nil
}

// GetActiveInstances returns dispatcher processes with a live heartbeat
func (c *RedisCollector) GetActiveInstances(ctx context.Context) ([]InstanceInfo, error) {
	beats, err := webhookredis.ActiveInstances(ctx, c.client)
	if err != nil {
		return nil, err
	}

	instances := make([]InstanceInfo, 0, len(beats))
	for _, hb := range beats {
		instances = append(instances, InstanceInfo{
			InstanceID:    hb.InstanceID,
			Version:       hb.Version,
			Subscriptions: hb.Subscriptions,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}
	return instances, nil
}

// recentFailures reads the log stream from the start of the widest window
// Stream IDs begin with the append time in milliseconds
func (c *RedisCollector) recentFailures(ctx context.Context) ([]redis.XMessage, error) {
	start := strconv.FormatInt(c.now().Add(-recentWindow).UnixMilli(), 10)
	msgs, err := c.client.XRange(ctx, webhookredis.LogStream, start, "+").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading delivery log: %w", err)
	}
	return msgs, nil
}

func bucketFailures(msgs []redis.XMessage, now time.Time) (FailureWindows, map[string]int64) {
	oneMinuteAgo := now.Add(-1 * time.Minute).UnixMilli()
	fiveMinutesAgo := now.Add(-5 * time.Minute).UnixMilli()
	fifteenMinutesAgo := now.Add(-recentWindow).UnixMilli()

	var w FailureWindows
	byEvent := make(map[string]int64)

	for _, msg := range msgs {
		ms, _, _ := strings.Cut(msg.ID, "-")
		at, err := strconv.ParseInt(ms, 10, 64)
		if err != nil || at < fifteenMinutesAgo {
			continue
		}

		w.LastFifteenMinutes++
		if at >= fiveMinutesAgo {
			w.LastFiveMinutes++
			if at >= oneMinuteAgo {
				w.LastMinute++
			}
		}

		if event, ok := msg.Values["event"].(string); ok && event != "" {
			byEvent[event]++
		}
	}

	return w, byEvent
}
