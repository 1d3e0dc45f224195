package adapter

import (
	"context"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
)

// GatewayVerifier is the pull side of the gateway contract: one
// authenticated status query per call, no caching, no retry.
type GatewayVerifier interface {
	// VerifyPayment fetches the current status snapshot for paymentID.
	// It returns domain.ErrGatewayDeclined when the gateway answers with a
	// non-success HTTP status.
	VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error)
}
