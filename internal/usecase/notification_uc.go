// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/logging"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// Receive processes one pushed notification: validate, absorb duplicates,
	// apply to the record store. A nil return means receipt can be
	// acknowledged; it says nothing about downstream processing.
	Receive(ctx context.Context, n *model.PaymentNotification) error
}

type notificationUC struct {
	records repository.PaymentRecordRepository
	dedup   repository.DedupStore
	log     *zerolog.Logger
}

func NewNotificationUseCase(records repository.PaymentRecordRepository, dedup repository.DedupStore, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{records: records, dedup: dedup, log: logger}
}

func (u *notificationUC) Receive(ctx context.Context, n *model.PaymentNotification) error {
	if err := n.Validate(); err != nil {
		metrics.IncNotification(string(n.Status), "rejected")
		return err
	}

	ctx = logging.WithPaymentID(ctx, n.PaymentID)
	if n.AgentID != "" {
		ctx = logging.WithAgentID(ctx, n.AgentID)
	}
	log := logging.With(ctx, u.log)

	// A secret must never surface before the terminal state. Scrub it rather
	// than reject: the rest of the payload is still a valid transition.
	if n.Status != model.StatusCompleted && n.Secret != "" {
		log.Warn().Str("status", string(n.Status)).Msg("secret present before completion; scrubbed")
		metrics.IncSecretScrub()
		n.Secret = ""
	}

	dup, err := u.dedup.CheckOrSetReceived(ctx, n.DedupKey())
	if err != nil {
		metrics.IncNotification(string(n.Status), "error")
		return fmt.Errorf("dedup check: %w", err)
	}
	if dup {
		log.Debug().Str("status", string(n.Status)).Msg("duplicate notification absorbed")
		metrics.IncNotificationDuplicate()
		return nil
	}

	rec, err := u.records.Apply(ctx, n)
	if err != nil {
		if errors.Is(err, domain.ErrStatusRegression) {
			log.Warn().Str("status", string(n.Status)).Msg("regressive status transition rejected")
			metrics.IncNotification(string(n.Status), "regression")
			return err
		}
		metrics.IncNotification(string(n.Status), "error")
		return fmt.Errorf("apply notification: %w", err)
	}

	log.Info().
		Str("merchant_id", n.MerchantID).
		Str("status", string(rec.Status)).
		Time("status_at", rec.StatusAt).
		Msg("payment notification recorded")

	metrics.IncNotification(string(n.Status), "accepted")
	return nil
}
