package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/globalagency/payments/pkg/types"
)

// Payment is one charge attempt against a gateway. Rows are never deleted:
// failed and abandoned attempts stay for audit, and a retry is always a new
// row with a new order reference.
type Payment struct {
	ID            string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	ApplicationID uint   `gorm:"column:application_id;not null;index" json:"application_id"`

	// OrderReference correlates this attempt with the gateway-side charge.
	// Assigned exactly once at creation, never reused across attempts.
	OrderReference string `gorm:"column:order_reference;type:varchar(100);uniqueIndex;not null" json:"order_reference"`

	PayerName  string `gorm:"column:payer_name;type:varchar(150)" json:"payer_name"`
	PayerEmail string `gorm:"column:payer_email;type:varchar(254)" json:"payer_email"`
	// PayerPhone in international format (255XXXXXXXXX) for mobile money.
	PayerPhone string `gorm:"column:payer_phone;type:varchar(20)" json:"payer_phone"`

	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Currency string          `gorm:"column:currency;type:varchar(3);not null" json:"currency"`

	Method  types.PaymentMethod  `gorm:"column:method;type:varchar(50);not null" json:"method"`
	Gateway types.PaymentGateway `gorm:"column:gateway;type:varchar(20);not null" json:"gateway"`

	// Protocol fields reported back by the gateway.
	TransactionID    string `gorm:"column:transaction_id;type:varchar(100)" json:"transaction_id"`
	PaymentReference string `gorm:"column:payment_reference;type:varchar(100)" json:"payment_reference"`
	Channel          string `gorm:"column:channel;type:varchar(100)" json:"channel"`
	CardPaymentLink  string `gorm:"column:card_payment_link;type:varchar(500)" json:"card_payment_link,omitempty"`
	Message          string `gorm:"column:message;type:text" json:"message"`
	ErrorMessage     string `gorm:"column:error_message;type:text" json:"error_message"`

	Status       types.PaymentStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	IsSuccessful bool                `gorm:"column:is_successful;not null;default:false" json:"is_successful"`

	// RawResponse is the last gateway payload seen for this attempt, kept
	// opaque for audit; business logic only ever reads the typed fields above.
	RawResponse datatypes.JSON `gorm:"column:raw_response;type:jsonb" json:"raw_response"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) IsPending() bool {
	return p != nil && (p.Status == types.PaymentStatusPending || p.Status == types.PaymentStatusProcessing)
}

func (p *Payment) IsCompleted() bool {
	return p != nil && p.Status.IsSuccessful()
}
