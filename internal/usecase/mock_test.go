//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Mock record repository ---

type MockRecordRepo struct {
	repository.PaymentRecordRepository // Embed interface for forward compatibility
	mu                                 sync.Mutex
	records                            map[string]*model.PaymentRecord
	ApplyFunc                          func(ctx context.Context, n *model.PaymentNotification) (*model.PaymentRecord, error)
	ApplyCalls                         int
}

func NewMockRecordRepo() *MockRecordRepo {
	return &MockRecordRepo{records: make(map[string]*model.PaymentRecord)}
}

func (m *MockRecordRepo) Apply(ctx context.Context, n *model.PaymentNotification) (*model.PaymentRecord, error) {
	m.mu.Lock()
	m.ApplyCalls++
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[n.PaymentID]
	if ok && !rec.Status.CanTransitionTo(n.Status) {
		return nil, domain.ErrStatusRegression
	}
	rec = &model.PaymentRecord{
		PaymentID:  n.PaymentID,
		MerchantID: n.MerchantID,
		AgentID:    n.AgentID,
		Status:     n.Status,
		StatusAt:   n.Timestamp,
		Secret:     n.Secret,
		UpdatedAt:  time.Now(),
	}
	m.records[n.PaymentID] = rec
	return rec, nil
}

func (m *MockRecordRepo) FindByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// --- Mock dedup store ---

type MockDedupStore struct {
	mu      sync.Mutex
	seen    map[string]bool
	CheckFn func(ctx context.Context, key string) (bool, error)
}

func NewMockDedupStore() *MockDedupStore {
	return &MockDedupStore{seen: make(map[string]bool)}
}

func (m *MockDedupStore) CheckOrSetReceived(ctx context.Context, key string) (bool, error) {
	if m.CheckFn != nil {
		return m.CheckFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return true, nil
	}
	m.seen[key] = true
	return false, nil
}

// --- Mock gateway verifier ---

type MockGatewayVerifier struct {
	VerifyPaymentFunc func(ctx context.Context, paymentID string) (*model.VerificationResult, error)
}

func (m *MockGatewayVerifier) VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error) {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, paymentID)
	}
	return &model.VerificationResult{Status: "successful", Timestamp: time.Now()}, nil
}
