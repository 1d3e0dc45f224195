package repository

import (
	"context"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
)

// PaymentRecordRepository persists the latest accepted state of each payment.
type PaymentRecordRepository interface {
	// Apply upserts the notification into the record keyed by payment_id.
	// It is idempotent for re-deliveries and returns domain.ErrStatusRegression
	// when the notification would move the record backwards in the lifecycle.
	Apply(ctx context.Context, n *model.PaymentNotification) (*model.PaymentRecord, error)

	// FindByID returns the record for a payment, or domain.ErrNotFound.
	FindByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error)

	// ListInitializedOlderThan returns up to limit records still initialized
	// whose last status change predates cutoff. Used by the reconciler.
	ListInitializedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.PaymentRecord, error)
}

// DedupStore absorbs duplicate webhook deliveries.
type DedupStore interface {
	// CheckOrSetReceived marks key as received. It returns true when the key
	// had already been marked, i.e. this delivery is a duplicate.
	CheckOrSetReceived(ctx context.Context, key string) (bool, error)
}
