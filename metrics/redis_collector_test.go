package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCollector_NewRedisCollector(t *testing.T) {
	t.Run("creates collector without a connection", func(t *testing.T) {
		collector := NewRedisCollector(nil)

		assert.NotNil(t, collector)
		assert.NotNil(t, collector.now)
	})
}

func TestBucketFailures(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(ago time.Duration, event string) redis.XMessage {
		return redis.XMessage{
			ID:     fmt.Sprintf("%d-0", now.Add(-ago).UnixMilli()),
			Values: map[string]interface{}{"event": event},
		}
	}

	t.Run("counts nested windows and events", func(t *testing.T) {
		msgs := []redis.XMessage{
			at(20*time.Minute, "convo.created"),
			at(10*time.Minute, "convo.created"),
			at(3*time.Minute, "convo.status"),
			at(30*time.Second, "convo.status"),
			at(0, "customer.created"),
		}

		w, byEvent := bucketFailures(msgs, now)

		assert.Equal(t, FailureWindows{LastMinute: 2, LastFiveMinutes: 3, LastFifteenMinutes: 4}, w)
		assert.Equal(t, map[string]int64{
			"convo.created":    1,
			"convo.status":     2,
			"customer.created": 1,
		}, byEvent)
	})

	t.Run("skips malformed ids", func(t *testing.T) {
		msgs := []redis.XMessage{{ID: "garbage", Values: map[string]interface{}{"event": "convo.created"}}}

		w, byEvent := bucketFailures(msgs, now)

		assert.Zero(t, w.LastFifteenMinutes)
		assert.Empty(t, byEvent)
	})

	t.Run("empty stream", func(t *testing.T) {
		w, byEvent := bucketFailures(nil, now)

		assert.Equal(t, FailureWindows{}, w)
		assert.NotNil(t, byEvent)
	})
}

func TestCollector_Interface(t *testing.T) {
	t.Run("RedisCollector implements Collector interface", func(t *testing.T) {
		var _ Collector = (*RedisCollector)(nil)
	})
}
