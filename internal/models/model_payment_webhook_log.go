package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentWebhookLogStatus string

const (
	PaymentWebhookLogStatusReceived     PaymentWebhookLogStatus = "received"
	PaymentWebhookLogStatusHandled      PaymentWebhookLogStatus = "handled"
	PaymentWebhookLogStatusHandleFailed PaymentWebhookLogStatus = "handle_failed"
)

// PaymentWebhookLog records every inbound gateway callback and how it was
// handled. The gateway retries delivery until acknowledged, so duplicates are
// expected and each delivery gets its own row.
type PaymentWebhookLog struct {
	ID             string                  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Gateway        string                  `gorm:"column:gateway;type:varchar(20);not null" json:"gateway"`
	OrderReference string                  `gorm:"column:order_reference;type:varchar(100);index" json:"order_reference"`
	TraceID        string                  `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ReceivedAt     time.Time               `gorm:"column:received_at" json:"received_at"`
	Data           datatypes.JSON          `gorm:"column:data;type:jsonb" json:"data"`
	Result         *datatypes.JSON         `gorm:"column:result;type:jsonb" json:"result"`
	Status         PaymentWebhookLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func (PaymentWebhookLog) TableName() string { return "payment_webhook_log" }
