package sched

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/adapter"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

// Reconciler periodically scans for records stuck in the initialized state
// and pull-verifies them against the gateway. This folds the pull channel
// back into the store the push channel writes, covering completion
// notifications that were lost or never delivered.
type Reconciler struct {
	verifier   adapter.GatewayVerifier
	records    repository.PaymentRecordRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old an initialized record must be to re-check
	log        *zerolog.Logger
}

func NewReconciler(verifier adapter.GatewayVerifier, records repository.PaymentRecordRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Reconciler{verifier: verifier, records: records, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *Reconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one reconciliation pass.
func (w *Reconciler) Tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.records.ListInitializedOlderThan(ctx, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list stale records")
		return
	}
	for _, rec := range stale {
		res, err := w.verifier.VerifyPayment(ctx, rec.PaymentID)
		if err != nil {
			w.log.Warn().Str("payment_id", rec.PaymentID).Err(err).Msg("reconciler: verification pull failed")
			continue
		}
		status, ok := mapPullStatus(res.Status)
		if !ok || status != model.StatusCompleted {
			// Unknown pull vocabulary stays untouched; the push channel
			// remains the authority for anything we cannot map.
			continue
		}
		n := &model.PaymentNotification{
			PaymentID:  rec.PaymentID,
			MerchantID: rec.MerchantID,
			AgentID:    rec.AgentID,
			Status:     model.StatusCompleted,
			Timestamp:  res.Timestamp,
			Secret:     res.Secret,
		}
		if _, err := w.records.Apply(ctx, n); err != nil {
			w.log.Warn().Str("payment_id", rec.PaymentID).Err(err).Msg("reconciler: apply failed")
			continue
		}
		w.log.Info().Str("payment_id", rec.PaymentID).Str("pull_status", res.Status).Msg("reconciler: record completed from pull channel")
	}
}

// mapPullStatus folds the gateway's free-form pull vocabulary onto the push
// enum. Only the completion words are mapped; everything else is opaque.
func mapPullStatus(s string) (model.NotificationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "successful", "completed", "succeeded":
		return model.StatusCompleted, true
	case "initialized", "pending":
		return model.StatusInitialized, true
	}
	return "", false
}
