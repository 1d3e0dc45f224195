package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

var _ repository.DedupStore = (*DedupStore)(nil)

// DedupStore marks webhook deliveries in Redis so duplicate pushes are
// absorbed across process restarts and replicas. Keys carry a TTL: the
// gateway's retry window is bounded, the key space should be too.
type DedupStore struct {
	client *Client
	ttl    time.Duration
}

func NewDedupStore(client *Client, ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DedupStore{client: client, ttl: ttl}
}

func (d *DedupStore) CheckOrSetReceived(ctx context.Context, key string) (bool, error) {
	set, err := d.client.SetNX(ctx, "notif:"+key, "received", d.ttl)
	if err != nil {
		return false, fmt.Errorf("redis SETNX: %w", err)
	}
	// SETNX returns false when the key already existed: a duplicate.
	return !set, nil
}
