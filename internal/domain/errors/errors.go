package errors

import "errors"

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCart          = errors.New("invalid cart")
	ErrInvalidAddress       = errors.New("invalid shipping address")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrUnknownProduct       = errors.New("unknown product")
	ErrPaymentInitFailed    = errors.New("payment initialisation failed")
	ErrPaymentNotRetryable  = errors.New("payment cannot be retried")
	ErrStateConflict        = errors.New("order state changed concurrently")
)
