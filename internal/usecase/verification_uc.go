// File: internal/usecase/verification_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/adapter"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/metrics"
)

// User-facing messages for the verification surface. The declined message
// covers not-found, invalid-request and unauthorized alike; the fallback is
// used only when the failure carries no message of its own.
const (
	MsgVerificationDeclined = "Payment not found or invalid request"
	MsgUnknownError         = "An unknown error occurred"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

type VerificationUseCase interface {
	// Verify performs exactly one authenticated pull for paymentID and
	// records the outcome. No caching, no retry.
	Verify(ctx context.Context, paymentID string) (*model.VerificationResult, error)
	// State returns the current mutually-exclusive result/error pair:
	// exactly one of result and errMsg is set once a call has finished.
	State() (result *model.VerificationResult, errMsg string)
}

type verificationUC struct {
	gateway adapter.GatewayVerifier
	log     *zerolog.Logger

	mu      sync.Mutex
	nextSeq uint64
	applied uint64 // seq of the newest outcome applied so far
	result  *model.VerificationResult
	errMsg  string
}

func NewVerificationUseCase(gateway adapter.GatewayVerifier, logger *zerolog.Logger) *verificationUC {
	return &verificationUC{gateway: gateway, log: logger}
}

func (u *verificationUC) Verify(ctx context.Context, paymentID string) (*model.VerificationResult, error) {
	seq := u.begin()

	if paymentID == "" {
		err := fmt.Errorf("%w: payment id is required", domain.ErrInvalidArgument)
		u.applyError(seq, err.Error())
		metrics.VerifyRequests.WithLabelValues("fail", "empty_id").Inc()
		return nil, err
	}

	start := time.Now()
	res, err := u.gateway.VerifyPayment(ctx, paymentID)
	if err != nil {
		reason := "transport"
		msg := UserFacingMessage(err)
		if errors.Is(err, domain.ErrGatewayDeclined) {
			reason = "declined"
		}
		u.applyError(seq, msg)
		metrics.VerifyRequests.WithLabelValues("fail", reason).Inc()
		metrics.VerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		u.log.Warn().Str("payment_id", paymentID).Err(err).Msg("verification failed")
		return nil, err
	}

	u.applyResult(seq, res)
	metrics.VerifyRequests.WithLabelValues("ok", "").Inc()
	metrics.VerifyDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	u.log.Info().Str("payment_id", paymentID).Str("status", res.Status).Msg("verification succeeded")
	return res, nil
}

func (u *verificationUC) State() (*model.VerificationResult, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result, u.errMsg
}

// begin allocates a sequence number for one verification attempt. Outcomes
// apply latest-request-wins: a slower, older call must not clobber the state
// a newer call has already rendered.
func (u *verificationUC) begin() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextSeq++
	return u.nextSeq
}

func (u *verificationUC) applyResult(seq uint64, res *model.VerificationResult) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if seq < u.applied {
		return // a newer outcome is already visible
	}
	u.applied = seq
	u.result = res
	u.errMsg = ""
}

func (u *verificationUC) applyError(seq uint64, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if seq < u.applied {
		return
	}
	u.applied = seq
	u.result = nil
	u.errMsg = msg
}

// UserFacingMessage maps a verification failure onto the message shown to
// the caller: the specific declined message, the failure's own message when
// it has one, or the generic fallback.
func UserFacingMessage(err error) string {
	if errors.Is(err, domain.ErrGatewayDeclined) {
		return MsgVerificationDeclined
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknownError
}
