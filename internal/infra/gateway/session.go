package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
)

// SessionConfig selects which gateway deployment the widget session talks
// to. Pure configuration, no behavior of its own.
type SessionConfig struct {
	MerchantID string
	PublicKey  string
	BaseURL    string
}

// Session is the lifetime-scoped handle a hosting context holds to the
// gateway widget. One owner per session: acquire with Init, release with
// Destroy, paired 1:1. Handlers registered via OnPaymentEvent are invoked
// asynchronously by a single dispatch goroutine, so ordering of events for
// the same payment is preserved as emitted.
type Session struct {
	cfg SessionConfig
	log *zerolog.Logger

	mu       sync.Mutex
	started  bool
	closed   bool
	handlers []func(model.PaymentEvent)
	last     map[string]model.NotificationStatus // last dispatched status per payment

	events  chan model.PaymentEvent
	done    chan struct{}
	drained chan struct{}
	destroy sync.Once
}

func NewSession(cfg SessionConfig, logger *zerolog.Logger) *Session {
	return &Session{
		cfg:     cfg,
		log:     logger,
		last:    make(map[string]model.NotificationStatus),
		events:  make(chan model.PaymentEvent, 64),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Init establishes the session. At most one successful Init per Session;
// a second call errors rather than re-acquiring.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.started {
		return domain.ErrSessionStarted
	}
	if s.cfg.MerchantID == "" || s.cfg.PublicKey == "" || s.cfg.BaseURL == "" {
		return fmt.Errorf("%w: merchant id, public key and base url are required", domain.ErrInvalidArgument)
	}
	s.started = true
	go s.dispatch()
	s.log.Debug().Str("merchant_id", s.cfg.MerchantID).Str("base_url", s.cfg.BaseURL).Msg("gateway session started")
	return nil
}

// OnPaymentEvent registers a listener for payment events. Zero or more
// listeners may be registered; each sees every dispatched event.
func (s *Session) OnPaymentEvent(handler func(model.PaymentEvent)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Emit feeds one event into the session. The transport bridging the
// gateway's wire protocol calls this; tests do too. Events for the same
// payment that would move the status backwards are dropped, enforcing the
// non-decreasing per-payment guarantee at the consuming edge.
func (s *Session) Emit(ev model.PaymentEvent) error {
	s.mu.Lock()
	if !s.started || s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if prev, ok := s.last[ev.PaymentID]; ok && !prev.CanTransitionTo(ev.Status) {
		s.mu.Unlock()
		s.log.Warn().Str("payment_id", ev.PaymentID).
			Str("from", string(prev)).Str("to", string(ev.Status)).
			Msg("out-of-order payment event dropped")
		return nil
	}
	s.last[ev.PaymentID] = ev.Status
	s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = newEventID(ev.Timestamp)
	}

	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return domain.ErrSessionClosed
	}
}

// Destroy releases the session. Safe to call on a session that never
// started; repeated calls are no-ops, so every exit path of the hosting
// context can call it unconditionally.
func (s *Session) Destroy() {
	s.destroy.Do(func() {
		s.mu.Lock()
		started := s.started
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		if started {
			<-s.drained
		}
		s.log.Debug().Str("merchant_id", s.cfg.MerchantID).Msg("gateway session destroyed")
	})
}

func (s *Session) dispatch() {
	defer close(s.drained)
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.mu.Lock()
			handlers := make([]func(model.PaymentEvent), len(s.handlers))
			copy(handlers, s.handlers)
			s.mu.Unlock()
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}

// WithSession scopes a session to fn: init on entry, guaranteed destroy on
// every exit path, including an Init failure partway through setup.
func WithSession(ctx context.Context, cfg SessionConfig, logger *zerolog.Logger, fn func(*Session) error) error {
	s := NewSession(cfg, logger)
	defer s.Destroy()
	if err := s.Init(ctx); err != nil {
		return err
	}
	return fn(s)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newEventID mints a ULID so event IDs for one payment sort in emission order.
func newEventID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
