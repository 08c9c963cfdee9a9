package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskhive/deskhive/internal/models"
)

// RedisTracker keeps presence in a Redis hash per ticket so multiple app
// instances see the same viewers. The whole hash expires on the TTL; stale
// individual entries are filtered (and deleted) on read.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker creates a Redis-backed tracker; zero ttl means DefaultTTL.
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTracker{client: client, ttl: ttl}
}

func ticketKey(ticketID int64) string {
	return fmt.Sprintf("presence:ticket:%d", ticketID)
}

func (t *RedisTracker) Heartbeat(ctx context.Context, viewer models.Viewer) error {
	viewer.LastSeen = time.Now()
	payload, err := json.Marshal(viewer)
	if err != nil {
		return err
	}
	key := ticketKey(viewer.TicketID)
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(viewer.AgentID, 10), payload)
	pipe.Expire(ctx, key, t.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (t *RedisTracker) Viewers(ctx context.Context, ticketID int64) ([]models.Viewer, error) {
	key := ticketKey(ticketID)
	raw, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-t.ttl)
	var viewers []models.Viewer
	var stale []string
	for field, value := range raw {
		var viewer models.Viewer
		if err := json.Unmarshal([]byte(value), &viewer); err != nil {
			stale = append(stale, field)
			continue
		}
		if viewer.LastSeen.After(cutoff) {
			viewers = append(viewers, viewer)
		} else {
			stale = append(stale, field)
		}
	}
	if len(stale) > 0 {
		t.client.HDel(ctx, key, stale...)
	}
	return viewers, nil
}

// Prune is a no-op for Redis: key expiry and read-side filtering already
// bound staleness.
func (t *RedisTracker) Prune(context.Context) error { return nil }
