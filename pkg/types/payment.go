package types

// PaymentStatus is the settlement state of a single charge attempt as
// reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusSettled    PaymentStatus = "settled"
)

// IsTerminal reports whether no further non-authoritative transition is
// accepted from this status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusSettled || s == PaymentStatusFailed
}

// IsSuccessful reports whether funds have moved (or are settled).
func (s PaymentStatus) IsSuccessful() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusSettled
}

type PaymentMethod string

const (
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

type PaymentGateway string

const (
	PaymentGatewayClickPesa PaymentGateway = "clickpesa"
	PaymentGatewayAzamPay   PaymentGateway = "azampay"
	PaymentGatewayManual    PaymentGateway = "manual"
)

// ApplicationPaymentStatus is the coarse business-level payment state held on
// the owning application record.
type ApplicationPaymentStatus string

const (
	ApplicationPaymentStatusNotPaid             ApplicationPaymentStatus = "not_paid"
	ApplicationPaymentStatusPendingVerification ApplicationPaymentStatus = "pending_verification"
	ApplicationPaymentStatusPaid                ApplicationPaymentStatus = "paid"
	ApplicationPaymentStatusRefunded            ApplicationPaymentStatus = "refunded"
)

// ApplicationStatus is the application's workflow state. Only the two states
// the payment engine touches are modelled here.
type ApplicationStatus string

const (
	ApplicationStatusPendingPayment ApplicationStatus = "pending_payment"
	ApplicationStatusSubmitted      ApplicationStatus = "submitted"
)
