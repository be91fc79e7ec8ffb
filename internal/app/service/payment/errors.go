package payment

import (
	"errors"

	"github.com/globalagency/payments/internal/app/service/application"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrApplicationNotFound is the application store's sentinel, re-exported
	// so callers of the coordinator can match it without importing that
	// package.
	ErrApplicationNotFound = application.ErrNotFound
	// ErrCancelNotAllowed: once the gateway reported processing, the remote
	// charge is out of our hands and a local cancel would only lie about it.
	ErrCancelNotAllowed = errors.New("payment can no longer be cancelled locally")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)
