package services

import "errors"

// UserError carries a message safe to show to the caller verbatim.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

var (
	ErrValidation         = errors.New("validation failed")
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrPaymentGateway     = errors.New("payment gateway error")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
