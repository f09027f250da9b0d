package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("no authenticated user")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrPasswordRequired   = errors.New("password confirmation required")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConcurrentUpdate   = errors.New("order was modified concurrently")
	ErrInvalidWebhookURL  = errors.New("invalid webhook URL format")
	ErrWebhookUnreachable = errors.New("unable to reach webhook endpoint")
)
