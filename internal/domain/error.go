package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownStatus    = errors.New("unknown payment status")
	ErrStatusRegression = errors.New("payment status regression")
	ErrSessionStarted   = errors.New("gateway session already started")
	ErrSessionClosed    = errors.New("gateway session closed")
	ErrGatewayDeclined  = errors.New("gateway declined verification request")
	ErrOperationFailed  = errors.New("operation failed")
)
