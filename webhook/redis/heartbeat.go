package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	heartbeatPrefix = "dispatcher:heartbeat"

	// HeartbeatTTL is how long an instance counts as alive after its last beat
	HeartbeatTTL = 60 * time.Second
)

// InstanceHeartbeat is what a dispatcher process reports about itself
type InstanceHeartbeat struct {
	InstanceID    string    `json:"instance_id"`
	Version       string    `json:"version"`
	Subscriptions int       `json:"subscriptions"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// SetHeartbeat stores or refreshes an instance heartbeat
// Instances should beat every HeartbeatTTL/2
func (r *Repository) SetHeartbeat(ctx context.Context, hb InstanceHeartbeat) error {
	if hb.LastHeartbeat.IsZero() {
		hb.LastHeartbeat = time.Now()
	}
	data, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	key := fmt.Sprintf("%s:%s", heartbeatPrefix, hb.InstanceID)
	if err := r.client.Set(ctx, key, data, HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}
	return nil
}

// ActiveInstances returns every instance whose heartbeat has not expired
func (r *Repository) ActiveInstances(ctx context.Context) ([]InstanceHeartbeat, error) {
	return ActiveInstances(ctx, r.client)
}

// ActiveInstances scans heartbeat keys with a bare client, for collectors
func ActiveInstances(ctx context.Context, client *redis.Client) ([]InstanceHeartbeat, error) {
	var instances []InstanceHeartbeat

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, heartbeatPrefix+":*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning heartbeat keys: %w", err)
		}

		for _, key := range keys {
			data, err := client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				// expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting heartbeat: %w", err)
			}

			var hb InstanceHeartbeat
			if err := json.Unmarshal(data, &hb); err != nil {
				continue
			}
			instances = append(instances, hb)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return instances, nil
}
