// Package memory holds in-memory implementations of the storage ports,
// used in tests and in deployments that run without Postgres/Redis.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

var _ repository.PaymentRecordRepository = (*PaymentRecordRepo)(nil)

type PaymentRecordRepo struct {
	mu      sync.RWMutex
	records map[string]*model.PaymentRecord
}

func NewPaymentRecordRepo() *PaymentRecordRepo {
	return &PaymentRecordRepo{records: make(map[string]*model.PaymentRecord)}
}

func (r *PaymentRecordRepo) Apply(ctx context.Context, n *model.PaymentNotification) (*model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rec, ok := r.records[n.PaymentID]
	if !ok {
		rec = &model.PaymentRecord{
			PaymentID:       n.PaymentID,
			MerchantID:      n.MerchantID,
			AgentID:         n.AgentID,
			Status:          n.Status,
			StatusAt:        n.Timestamp,
			EncryptedAdvice: n.EncryptedAdvice,
			Secret:          n.Secret,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		r.records[n.PaymentID] = rec
		return cloneRecord(rec), nil
	}

	if !rec.Status.CanTransitionTo(n.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrStatusRegression, rec.Status, n.Status)
	}

	rec.Status = n.Status
	rec.StatusAt = n.Timestamp
	if n.AgentID != "" {
		rec.AgentID = n.AgentID
	}
	if n.EncryptedAdvice != "" {
		rec.EncryptedAdvice = n.EncryptedAdvice
	}
	if n.Secret != "" {
		rec.Secret = n.Secret
	}
	rec.UpdatedAt = now
	return cloneRecord(rec), nil
}

func (r *PaymentRecordRepo) FindByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *PaymentRecordRepo) ListInitializedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.PaymentRecord
	for _, rec := range r.records {
		if rec.Status == model.StatusInitialized && rec.UpdatedAt.Before(cutoff) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(rec *model.PaymentRecord) *model.PaymentRecord {
	c := *rec
	return &c
}
