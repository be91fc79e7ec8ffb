package clickpesa

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/globalagency/payments/pkg/types"
)

const channelStatusAvailable = "AVAILABLE"

// PushRequest is a mobile-money preview/initiate request.
type PushRequest struct {
	Amount         decimal.Decimal
	Currency       string
	OrderReference string
	// PhoneNumber in international format; use NormalizePhone before calling.
	PhoneNumber string
}

// CardRequest is a card preview/initiate request.
type CardRequest struct {
	Amount         decimal.Decimal
	Currency       string
	OrderReference string
	Customer       Customer
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phoneNumber,omitempty"`
}

// ActiveMethod is one settlement channel reported by a preview call.
type ActiveMethod struct {
	Name   string          `json:"name"`
	Status string          `json:"status"`
	Fee    json.RawMessage `json:"fee,omitempty"`
}

func (m ActiveMethod) Available() bool {
	return strings.EqualFold(m.Status, channelStatusAvailable)
}

type PreviewResponse struct {
	ActiveMethods []ActiveMethod  `json:"activeMethods"`
	SenderDetails json.RawMessage `json:"senderDetails,omitempty"`

	// Raw is the undecoded body, kept for the payment audit trail.
	Raw json.RawMessage `json:"-"`
}

// HasAvailableChannel reports whether any settlement channel can take the
// charge right now. When false, Initiate must not be called.
func (r *PreviewResponse) HasAvailableChannel() bool {
	for _, m := range r.ActiveMethods {
		if m.Available() {
			return true
		}
	}
	return false
}

// InitiateResponse is the gateway's answer to a charge attempt. For card
// payments CardPaymentLink carries the hosted checkout URL.
type InitiateResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Channel         string `json:"channel"`
	OrderReference  string `json:"orderReference"`
	Message         string `json:"message"`
	CardPaymentLink string `json:"cardPaymentLink,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// PaymentRecord is one settlement record from the status endpoint. The
// endpoint may return several records per order reference; the first one is
// treated as the most recent.
type PaymentRecord struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Channel          string `json:"channel"`
	OrderReference   string `json:"orderReference"`
	PaymentReference string `json:"paymentReference"`
	Message          string `json:"message"`
	CollectedAmount  string `json:"collectedAmount"`
	CollectedCurrency string `json:"collectedCurrency"`
	CreatedAt        string `json:"createdAt"`
}

// StatusResponse wraps the record list plus the raw body for audit.
type StatusResponse struct {
	Records []PaymentRecord
	Raw     json.RawMessage
}

// Latest returns the authoritative record, nil when the gateway knows nothing
// about the reference yet.
func (r *StatusResponse) Latest() *PaymentRecord {
	if r == nil || len(r.Records) == 0 {
		return nil
	}
	return &r.Records[0]
}

// AccountBalance is the merchant account balance report.
type AccountBalance struct {
	Balances json.RawMessage `json:"balances"`
}

// MapStatus converts a gateway status string to the local payment status.
// Unknown strings map to processing: the charge has clearly reached the
// gateway, and a later poll or webhook will settle the question.
func MapStatus(s string) types.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS":
		return types.PaymentStatusSuccess
	case "SETTLED":
		return types.PaymentStatusSettled
	case "FAILED", "REVERSED", "REFUNDED":
		return types.PaymentStatusFailed
	case "PENDING":
		return types.PaymentStatusPending
	case "PROCESSING", "RECEIVED", "AUTHORIZED":
		return types.PaymentStatusProcessing
	default:
		return types.PaymentStatusProcessing
	}
}
