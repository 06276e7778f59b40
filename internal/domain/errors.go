package domain

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotConfigured     = errors.New("payment processing not configured")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrGateway           = errors.New("payment gateway error")
	ErrIllegalTransition = errors.New("illegal transition of order status")
)
