package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

var _ repository.DedupStore = (*DedupStore)(nil)

// DedupStore absorbs duplicate deliveries in process memory. Entries expire
// after ttl so the map stays bounded under long uptimes.
type DedupStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func NewDedupStore(ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DedupStore{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *DedupStore) CheckOrSetReceived(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.ttl {
		return true, nil
	}
	// Opportunistic sweep of expired keys.
	for k, at := range d.seen {
		if now.Sub(at) >= d.ttl {
			delete(d.seen, k)
		}
	}
	d.seen[key] = now
	return false, nil
}
