package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/types"
)

type StartPaymentRequest struct {
	ApplicationID uint                `json:"application_id"`
	Method        types.PaymentMethod `json:"method"`
	PayerName     string              `json:"payer_name"`
	PayerEmail    string              `json:"payer_email"`
	PayerPhone    string              `json:"payer_phone"`
}

// PaymentHandle is what the business layer gets back from StartPayment.
type PaymentHandle struct {
	PaymentID      string              `json:"payment_id"`
	OrderReference string              `json:"order_reference"`
	Status         types.PaymentStatus `json:"status"`
	// CardPaymentLink is the hosted checkout URL, card payments only.
	CardPaymentLink string `json:"card_payment_link,omitempty"`
	Message         string `json:"message,omitempty"`
}

type PaymentView struct {
	PaymentID        string               `json:"payment_id"`
	ApplicationID    uint                 `json:"application_id"`
	OrderReference   string               `json:"order_reference"`
	Status           types.PaymentStatus  `json:"status"`
	IsSuccessful     bool                 `json:"is_successful"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         string               `json:"currency"`
	Method           types.PaymentMethod  `json:"method"`
	Gateway          types.PaymentGateway `json:"gateway"`
	TransactionID    string               `json:"transaction_id,omitempty"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	Channel          string               `json:"channel,omitempty"`
	CardPaymentLink  string               `json:"card_payment_link,omitempty"`
	Message          string               `json:"message,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// WebhookPayload is the gateway's asynchronous callback body.
type WebhookPayload struct {
	OrderReference   string `json:"orderReference"`
	Status           string `json:"status"`
	ID               string `json:"id"`
	PaymentReference string `json:"paymentReference"`
	Message          string `json:"message"`
}

type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// Coordinator merges updates from the initiate response, operator polls and
// gateway webhooks into one authoritative payment record, and fires the
// one-time "application paid" effect.
type Coordinator interface {
	// StartPayment creates a pending payment for the application and drives
	// preview -> initiate against the gateway.
	StartPayment(ctx context.Context, req *StartPaymentRequest) (*PaymentHandle, error)
	// GetPaymentStatus polls the gateway on demand and reconciles before
	// returning the current view.
	GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentView, error)
	// HandleWebhook ingests an asynchronous gateway callback. Idempotent and
	// order-tolerant with respect to concurrent polls.
	HandleWebhook(ctx context.Context, payload *WebhookPayload) error
	// CancelPayment abandons an attempt that never reached the gateway.
	CancelPayment(ctx context.Context, paymentID string) error
	// VerifyManualPayment is the operator's verdict on an offline bank
	// transfer: approve settles it, reject fails it.
	VerifyManualPayment(ctx context.Context, paymentID string, approve bool) (*PaymentView, error)
	// ScanPayments lists payments for the back office.
	ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error)
}
