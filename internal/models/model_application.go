package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalagency/payments/pkg/types"
)

// Application is the business record owning a payment obligation. The wider
// back office owns most of its columns; the payment engine is the only writer
// of PaymentStatus, IsPaid and the pending_payment -> submitted transition,
// and writes them at most once per successful payment.
type Application struct {
	ID        uint   `gorm:"column:id;primary_key;autoIncrement" json:"id"`
	StudentID string `gorm:"column:student_id;type:varchar(64);not null;index" json:"student_id"`

	Status types.ApplicationStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`

	PaymentAmount   decimal.Decimal `gorm:"column:payment_amount;type:numeric(10,2)" json:"payment_amount"`
	PaymentCurrency string          `gorm:"column:payment_currency;type:varchar(3)" json:"payment_currency"`

	PaymentStatus types.ApplicationPaymentStatus `gorm:"column:payment_status;type:varchar(30);not null;default:'not_paid'" json:"payment_status"`
	IsPaid        bool                           `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	PaidAt        *time.Time                     `gorm:"column:paid_at" json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Application) TableName() string { return "application" }
