package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
)

// NotificationStatus is the closed status vocabulary of the push channel.
// The pull channel (VerificationResult.Status) is deliberately NOT constrained
// to this set; the gateway uses a richer vocabulary there (e.g. "successful").
type NotificationStatus string

const (
	StatusInitialized NotificationStatus = "initialized" // gateway created the payment; awaiting completion
	StatusCompleted   NotificationStatus = "completed"   // terminal; secret may be disclosed from here on
)

// Valid reports whether s is a member of the closed set.
func (s NotificationStatus) Valid() bool {
	return s == StatusInitialized || s == StatusCompleted
}

// rank orders the lifecycle. Transitions may never decrease it.
func (s NotificationStatus) rank() int {
	switch s {
	case StatusInitialized:
		return 1
	case StatusCompleted:
		return 2
	}
	return 0
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic initialized -> completed progression. Re-applying the same
// status is allowed (duplicate delivery is expected).
func (s NotificationStatus) CanTransitionTo(next NotificationStatus) bool {
	return next.rank() >= s.rank()
}

// UnmarshalJSON rejects any value outside the closed set so a malformed
// notification fails at decode time instead of being silently accepted.
func (s *NotificationStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := NotificationStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStatus, raw)
	}
	*s = st
	return nil
}

// PaymentNotification is one status transition pushed by the gateway.
// It is transient: it lives for the duration of the webhook call and any
// durable trace of it belongs to the PaymentRecord store.
type PaymentNotification struct {
	PaymentID       string             `json:"payment_id"`
	MerchantID      string             `json:"merchant_id"`
	Status          NotificationStatus `json:"status"`
	Timestamp       time.Time          `json:"timestamp"`
	AgentID         string             `json:"agent_id,omitempty"`         // set when an agent initiated the payment
	EncryptedAdvice string             `json:"encrypted_advice,omitempty"` // opaque gateway ciphertext, passed through
	Secret          string             `json:"secret,omitempty"`           // only valid alongside StatusCompleted
}

// Validate checks the required fields of a decoded notification.
// Status membership is already enforced by UnmarshalJSON; a zero Status
// here means the field was absent from the payload.
func (n *PaymentNotification) Validate() error {
	if n.PaymentID == "" {
		return fmt.Errorf("%w: payment_id is required", domain.ErrInvalidArgument)
	}
	if n.MerchantID == "" {
		return fmt.Errorf("%w: merchant_id is required", domain.ErrInvalidArgument)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: status is required", domain.ErrUnknownStatus)
	}
	if n.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", domain.ErrInvalidArgument)
	}
	return nil
}

// DedupKey identifies one delivery for duplicate-push absorption.
// The gateway re-sends the identical triple on retry.
func (n *PaymentNotification) DedupKey() string {
	return n.PaymentID + "|" + string(n.Status) + "|" + n.Timestamp.UTC().Format(time.RFC3339Nano)
}

// PaymentRecord is the durable projection of the latest accepted
// notification for one logical payment.
type PaymentRecord struct {
	PaymentID       string
	MerchantID      string
	AgentID         string
	Status          NotificationStatus
	StatusAt        time.Time // timestamp of the notification that produced Status
	EncryptedAdvice string
	Secret          string // empty until the payment completes
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VerificationResult is the gateway's answer to a pull verification.
// Status is opaque display text here and must not drive control flow.
type VerificationResult struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Secret    string    `json:"secret,omitempty"`
}

// PaymentEvent is emitted to gateway session subscribers. IDs are ULIDs so
// events for the same payment sort in emission order.
type PaymentEvent struct {
	ID        string             `json:"id"`
	PaymentID string             `json:"payment_id"`
	Status    NotificationStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}
