package clickpesa

import "errors"

// Error taxonomy for gateway interactions. Callers branch with errors.Is;
// details are attached by wrapping.
var (
	// ErrConfiguration: missing or malformed credentials/base URL. Operator
	// problem, never shown to the paying user.
	ErrConfiguration = errors.New("clickpesa: configuration error")
	// ErrAuthentication: the gateway rejected our credentials (401). Not
	// retried with the same credentials to avoid gateway-side lockouts.
	ErrAuthentication = errors.New("clickpesa: authentication failed")
	// ErrValidation: bad phone/amount/currency caught before any network call.
	ErrValidation = errors.New("clickpesa: invalid payment details")
	// ErrChannelUnavailable: preview reported no usable settlement channel.
	ErrChannelUnavailable = errors.New("clickpesa: no settlement channel available")
	// ErrNetwork: timeout, DNS failure, connection refused.
	ErrNetwork = errors.New("clickpesa: network error")
	// ErrGatewayBusiness: well-formed 4xx/5xx business decline.
	ErrGatewayBusiness = errors.New("clickpesa: gateway declined request")
	// ErrUnexpectedResponse: non-JSON or schema-mismatched 200.
	ErrUnexpectedResponse = errors.New("clickpesa: unexpected gateway response")
)
