package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
)

var _ repository.PaymentRecordRepository = (*paymentRecordRepo)(nil)

type paymentRecordRepo struct{ pool *pgxpool.Pool }

func NewPaymentRecordRepo(pool *pgxpool.Pool) *paymentRecordRepo {
	return &paymentRecordRepo{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS payment_records (
  payment_id       TEXT PRIMARY KEY,
  merchant_id      TEXT NOT NULL,
  agent_id         TEXT NOT NULL DEFAULT '',
  status           TEXT NOT NULL,
  status_at        TIMESTAMPTZ NOT NULL,
  encrypted_advice TEXT NOT NULL DEFAULT '',
  secret           TEXT NOT NULL DEFAULT '',
  created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_records_status_updated
  ON payment_records (status, updated_at);`

// Migrate creates the payment_records table when it does not exist yet.
func (r *paymentRecordRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate payment_records: %w", err)
	}
	return nil
}

// Apply upserts the notification keyed by payment_id. The WHERE clause on
// the conflict update filters out regressive transitions, so a progressed
// record never moves backwards; the missing RETURNING row is the signal.
func (r *paymentRecordRepo) Apply(ctx context.Context, n *model.PaymentNotification) (*model.PaymentRecord, error) {
	const q = `
INSERT INTO payment_records (
  payment_id, merchant_id, agent_id, status, status_at, encrypted_advice, secret
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (payment_id) DO UPDATE SET
  status           = EXCLUDED.status,
  status_at        = EXCLUDED.status_at,
  agent_id         = CASE WHEN EXCLUDED.agent_id <> '' THEN EXCLUDED.agent_id ELSE payment_records.agent_id END,
  encrypted_advice = CASE WHEN EXCLUDED.encrypted_advice <> '' THEN EXCLUDED.encrypted_advice ELSE payment_records.encrypted_advice END,
  secret           = CASE WHEN EXCLUDED.secret <> '' THEN EXCLUDED.secret ELSE payment_records.secret END,
  updated_at       = NOW()
WHERE NOT (payment_records.status = 'completed' AND EXCLUDED.status = 'initialized')
RETURNING payment_id, merchant_id, agent_id, status, status_at, encrypted_advice, secret, created_at, updated_at;`

	row := r.pool.QueryRow(ctx, q, n.PaymentID, n.MerchantID, n.AgentID, n.Status, n.Timestamp, n.EncryptedAdvice, n.Secret)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: completed -> %s", domain.ErrStatusRegression, n.Status)
		}
		return nil, classify(err)
	}
	return rec, nil
}

func (r *paymentRecordRepo) FindByID(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	const q = `SELECT payment_id, merchant_id, agent_id, status, status_at, encrypted_advice, secret, created_at, updated_at
FROM payment_records WHERE payment_id = $1;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, q, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, classify(err)
	}
	return rec, nil
}

func (r *paymentRecordRepo) ListInitializedOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.PaymentRecord, error) {
	const q = `SELECT payment_id, merchant_id, agent_id, status, status_at, encrypted_advice, secret, created_at, updated_at
FROM payment_records WHERE status = 'initialized' AND updated_at < $1
ORDER BY updated_at ASC LIMIT $2;`

	rows, err := r.pool.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*model.PaymentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*model.PaymentRecord, error) {
	rec := &model.PaymentRecord{}
	err := row.Scan(&rec.PaymentID, &rec.MerchantID, &rec.AgentID, &rec.Status, &rec.StatusAt,
		&rec.EncryptedAdvice, &rec.Secret, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: postgres %s: %s", domain.ErrOperationFailed, pgErr.Code, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
}
