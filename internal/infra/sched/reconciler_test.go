//go:build !integration

package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/memory"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type stubVerifier struct {
	results map[string]*model.VerificationResult
	err     error
	calls   []string
}

func (s *stubVerifier) VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error) {
	s.calls = append(s.calls, paymentID)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[paymentID], nil
}

func seedInitialized(t *testing.T, repo *memory.PaymentRecordRepo, paymentID string) {
	t.Helper()
	_, err := repo.Apply(context.Background(), &model.PaymentNotification{
		PaymentID:  paymentID,
		MerchantID: "MERCHANT_123",
		Status:     model.StatusInitialized,
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", paymentID, err)
	}
}

func TestReconciler_Tick(t *testing.T) {
	ctx := context.Background()
	pulledAt := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)

	t.Run("completes a stale record the pull channel reports as successful", func(t *testing.T) {
		// --- Arrange ---
		repo := memory.NewPaymentRecordRepo()
		seedInitialized(t, repo, "pay-1")
		verifier := &stubVerifier{results: map[string]*model.VerificationResult{
			"pay-1": {Status: "successful", Timestamp: pulledAt, Secret: "abc123"},
		}}
		// Negative staleAfter makes every record stale immediately.
		r := &Reconciler{verifier: verifier, records: repo, interval: time.Minute, staleAfter: -time.Second, log: newTestLogger()}

		// --- Act ---
		r.Tick(ctx)

		// --- Assert ---
		rec, err := repo.FindByID(ctx, "pay-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if rec.Status != model.StatusCompleted {
			t.Errorf("expected completed, got %s", rec.Status)
		}
		if rec.Secret != "abc123" || !rec.StatusAt.Equal(pulledAt) {
			t.Errorf("pull snapshot not folded into record: %+v", rec)
		}
	})

	t.Run("leaves records alone when the pull vocabulary is unknown", func(t *testing.T) {
		repo := memory.NewPaymentRecordRepo()
		seedInitialized(t, repo, "pay-1")
		verifier := &stubVerifier{results: map[string]*model.VerificationResult{
			"pay-1": {Status: "under_review", Timestamp: pulledAt},
		}}
		r := &Reconciler{verifier: verifier, records: repo, interval: time.Minute, staleAfter: -time.Second, log: newTestLogger()}

		r.Tick(ctx)

		rec, _ := repo.FindByID(ctx, "pay-1")
		if rec.Status != model.StatusInitialized {
			t.Errorf("unmapped pull status must not move the record, got %s", rec.Status)
		}
	})

	t.Run("leaves records alone when the pull reports still pending", func(t *testing.T) {
		repo := memory.NewPaymentRecordRepo()
		seedInitialized(t, repo, "pay-1")
		verifier := &stubVerifier{results: map[string]*model.VerificationResult{
			"pay-1": {Status: "pending", Timestamp: pulledAt},
		}}
		r := &Reconciler{verifier: verifier, records: repo, interval: time.Minute, staleAfter: -time.Second, log: newTestLogger()}

		r.Tick(ctx)

		rec, _ := repo.FindByID(ctx, "pay-1")
		if rec.Status != model.StatusInitialized {
			t.Errorf("a still-pending pull must not move the record, got %s", rec.Status)
		}
	})

	t.Run("a failed pull skips the record and keeps scanning", func(t *testing.T) {
		repo := memory.NewPaymentRecordRepo()
		seedInitialized(t, repo, "pay-1")
		seedInitialized(t, repo, "pay-2")
		verifier := &stubVerifier{err: errors.New("gateway unreachable")}
		r := &Reconciler{verifier: verifier, records: repo, interval: time.Minute, staleAfter: -time.Second, log: newTestLogger()}

		r.Tick(ctx)

		if len(verifier.calls) != 2 {
			t.Errorf("expected both stale records pulled, got calls %v", verifier.calls)
		}
		for _, id := range []string{"pay-1", "pay-2"} {
			rec, _ := repo.FindByID(ctx, id)
			if rec.Status != model.StatusInitialized {
				t.Errorf("%s: failed pull must not move the record, got %s", id, rec.Status)
			}
		}
	})

	t.Run("fresh records are not pulled", func(t *testing.T) {
		repo := memory.NewPaymentRecordRepo()
		seedInitialized(t, repo, "pay-1")
		verifier := &stubVerifier{}
		r := NewReconciler(verifier, repo, time.Minute, 10*time.Minute, newTestLogger())

		r.Tick(ctx)

		if len(verifier.calls) != 0 {
			t.Errorf("expected no pulls for fresh records, got %v", verifier.calls)
		}
	})
}

func TestMapPullStatus(t *testing.T) {
	cases := []struct {
		in     string
		want   model.NotificationStatus
		mapped bool
	}{
		{"successful", model.StatusCompleted, true},
		{"Succeeded", model.StatusCompleted, true},
		{" completed ", model.StatusCompleted, true},
		{"pending", model.StatusInitialized, true},
		{"initialized", model.StatusInitialized, true},
		{"refunded", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := mapPullStatus(tc.in)
		if got != tc.want || ok != tc.mapped {
			t.Errorf("mapPullStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.mapped)
		}
	}
}

func TestReconciler_StartStopsOnContextCancel(t *testing.T) {
	repo := memory.NewPaymentRecordRepo()
	r := NewReconciler(&stubVerifier{}, repo, 5*time.Millisecond, time.Hour, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after context cancellation")
	}
}
