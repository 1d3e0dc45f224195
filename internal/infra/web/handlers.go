package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/logging"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/usecase"
)

// webhookAck is the receipt acknowledgment. It confirms the notification
// arrived, not that downstream processing succeeded.
type webhookAck struct {
	Received bool `json:"received"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// webhookHandler accepts one pushed PaymentNotification per invocation.
func webhookHandler(notifUC usecase.NotificationUseCase, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var n model.PaymentNotification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			// Covers both unparseable bodies and out-of-enum status values:
			// a protocol violation is reported, never silently accepted.
			if errors.Is(err, domain.ErrUnknownStatus) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := notifUC.Receive(ctx, &n); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownStatus):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, domain.ErrStatusRegression):
				writeError(w, http.StatusConflict, err.Error())
			default:
				l := logging.With(ctx, logger)
				l.Error().Err(err).Msg("webhook processing failed")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, webhookAck{Received: true})
	}
}

// verifyHandler is the storefront-facing trigger: it runs one pull
// verification and renders either the gateway's snapshot or the
// user-facing error message, never both.
func verifyHandler(verifyUC usecase.VerificationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		paymentID := strings.TrimPrefix(r.URL.Path, "/api/verify/")
		if paymentID == "" || strings.Contains(paymentID, "/") {
			writeError(w, http.StatusBadRequest, "Payment ID is required")
			return
		}

		res, err := verifyUC.Verify(ctx, paymentID)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, domain.ErrGatewayDeclined):
				status = http.StatusNotFound
			case errors.Is(err, domain.ErrInvalidArgument):
				status = http.StatusBadRequest
			}
			writeError(w, status, usecase.UserFacingMessage(err))
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
