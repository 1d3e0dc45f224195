//go:build !integration

package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/gateway"
)

func testSessionConfig() gateway.SessionConfig {
	return gateway.SessionConfig{
		MerchantID: "MERCHANT_123",
		PublicKey:  "pk_test",
		BaseURL:    "http://localhost:8001",
	}
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("init at most once", func(t *testing.T) {
		s := gateway.NewSession(testSessionConfig(), newTestLogger())
		defer s.Destroy()

		if err := s.Init(ctx); err != nil {
			t.Fatalf("first init: %v", err)
		}
		if err := s.Init(ctx); !errors.Is(err, domain.ErrSessionStarted) {
			t.Errorf("expected ErrSessionStarted on second init, got %v", err)
		}
	})

	t.Run("init fails on incomplete config", func(t *testing.T) {
		cfg := testSessionConfig()
		cfg.PublicKey = ""
		s := gateway.NewSession(cfg, newTestLogger())
		defer s.Destroy()

		if err := s.Init(ctx); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("handlers receive emitted events", func(t *testing.T) {
		s := gateway.NewSession(testSessionConfig(), newTestLogger())
		defer s.Destroy()
		if err := s.Init(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}

		var mu sync.Mutex
		var got []model.PaymentEvent
		done := make(chan struct{}, 2)
		s.OnPaymentEvent(func(ev model.PaymentEvent) {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
			done <- struct{}{}
		})

		if err := s.Emit(model.PaymentEvent{PaymentID: "pay-1", Status: model.StatusInitialized, Timestamp: time.Now()}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		if err := s.Emit(model.PaymentEvent{PaymentID: "pay-1", Status: model.StatusCompleted, Timestamp: time.Now()}); err != nil {
			t.Fatalf("emit: %v", err)
		}

		for i := 0; i < 2; i++ {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for events")
			}
		}

		mu.Lock()
		defer mu.Unlock()
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if got[0].Status != model.StatusInitialized || got[1].Status != model.StatusCompleted {
			t.Errorf("events out of order: %+v", got)
		}
		if got[0].ID == "" || got[1].ID == "" {
			t.Error("expected minted event IDs")
		}
		if got[0].ID >= got[1].ID {
			t.Errorf("ULIDs must sort in emission order: %s >= %s", got[0].ID, got[1].ID)
		}
	})

	t.Run("regressive events for the same payment are dropped", func(t *testing.T) {
		s := gateway.NewSession(testSessionConfig(), newTestLogger())
		defer s.Destroy()
		if err := s.Init(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}

		var mu sync.Mutex
		var got []model.PaymentEvent
		seen := make(chan struct{}, 4)
		s.OnPaymentEvent(func(ev model.PaymentEvent) {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
			seen <- struct{}{}
		})

		_ = s.Emit(model.PaymentEvent{PaymentID: "pay-1", Status: model.StatusCompleted, Timestamp: time.Now()})
		_ = s.Emit(model.PaymentEvent{PaymentID: "pay-1", Status: model.StatusInitialized, Timestamp: time.Now()}) // regressive
		_ = s.Emit(model.PaymentEvent{PaymentID: "pay-2", Status: model.StatusInitialized, Timestamp: time.Now()}) // other payment, fine

		for i := 0; i < 2; i++ {
			select {
			case <-seen:
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for events")
			}
		}

		mu.Lock()
		defer mu.Unlock()
		if len(got) != 2 {
			t.Fatalf("expected the regressive event to be dropped, got %d events", len(got))
		}
		for _, ev := range got {
			if ev.PaymentID == "pay-1" && ev.Status == model.StatusInitialized {
				t.Error("regressive pay-1 event was dispatched")
			}
		}
	})

	t.Run("destroy is idempotent and emit after destroy fails", func(t *testing.T) {
		s := gateway.NewSession(testSessionConfig(), newTestLogger())
		if err := s.Init(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}

		s.Destroy()
		s.Destroy() // second call is a no-op

		err := s.Emit(model.PaymentEvent{PaymentID: "pay-1", Status: model.StatusInitialized})
		if !errors.Is(err, domain.ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
	})

	t.Run("destroy on a never-started session is safe", func(t *testing.T) {
		s := gateway.NewSession(testSessionConfig(), newTestLogger())
		s.Destroy()
	})
}

func TestWithSession(t *testing.T) {
	ctx := context.Background()

	t.Run("releases the session on the normal path", func(t *testing.T) {
		var inner *gateway.Session
		err := gateway.WithSession(ctx, testSessionConfig(), newTestLogger(), func(s *gateway.Session) error {
			inner = s
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if err := inner.Emit(model.PaymentEvent{PaymentID: "p", Status: model.StatusInitialized}); !errors.Is(err, domain.ErrSessionClosed) {
			t.Error("session must be destroyed after the scope ends")
		}
	})

	t.Run("releases the session when the scoped func fails", func(t *testing.T) {
		var inner *gateway.Session
		boom := errors.New("boom")
		err := gateway.WithSession(ctx, testSessionConfig(), newTestLogger(), func(s *gateway.Session) error {
			inner = s
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected the scoped error, got: %v", err)
		}
		if err := inner.Emit(model.PaymentEvent{PaymentID: "p", Status: model.StatusInitialized}); !errors.Is(err, domain.ErrSessionClosed) {
			t.Error("session must be destroyed on the error path")
		}
	})

	t.Run("init failure still tears down and skips the scope", func(t *testing.T) {
		cfg := testSessionConfig()
		cfg.MerchantID = ""
		ran := false
		err := gateway.WithSession(ctx, cfg, newTestLogger(), func(s *gateway.Session) error {
			ran = true
			return nil
		})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected init error, got: %v", err)
		}
		if ran {
			t.Error("scoped func must not run when init fails")
		}
	})
}
