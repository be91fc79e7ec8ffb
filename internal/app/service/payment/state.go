package payment

import (
	"gorm.io/datatypes"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/types"
)

// UpdateSource identifies which channel produced a status update. All three
// funnel through the same transition rule.
type UpdateSource string

const (
	SourceInitiate UpdateSource = "initiate"
	SourcePoll     UpdateSource = "poll"
	SourceWebhook  UpdateSource = "webhook"
	SourceOperator UpdateSource = "operator"
)

// Update is one status report from the gateway, whatever the channel.
type Update struct {
	Source           UpdateSource
	Status           types.PaymentStatus
	TransactionID    string
	PaymentReference string
	Channel          string
	Message          string
	ErrorMessage     string
	CardPaymentLink  string
	Raw              []byte
}

// nonTerminalRank orders the non-terminal states so status never moves
// backwards: a late "pending" report cannot demote "processing".
var nonTerminalRank = map[types.PaymentStatus]int{
	types.PaymentStatusPending:    0,
	types.PaymentStatusProcessing: 1,
}

// nextStatus applies the transition rule and returns the resulting status
// plus whether the update is accepted at all.
//
// The gateway is the source of truth and may correct itself, so a terminal
// state is overwritten by any later terminal report (including failed after
// success, the chargeback shape). Non-terminal reports never overwrite a
// terminal state.
func nextStatus(current, incoming types.PaymentStatus) (types.PaymentStatus, bool) {
	if current.IsTerminal() {
		if incoming.IsTerminal() {
			return incoming, true
		}
		return current, false
	}
	if incoming.IsTerminal() {
		return incoming, true
	}
	if nonTerminalRank[incoming] < nonTerminalRank[current] {
		return current, true
	}
	return incoming, true
}

// applyUpdate mutates the payment in place per the transition rule.
// firstSuccess reports whether this update moved the payment into a
// successful state for the first time.
func applyUpdate(p *models.Payment, u Update) (accepted bool, firstSuccess bool) {
	next, ok := nextStatus(p.Status, u.Status)
	if !ok {
		return false, false
	}

	firstSuccess = !p.Status.IsSuccessful() && next.IsSuccessful()

	p.Status = next
	p.IsSuccessful = next.IsSuccessful()

	// Audit fields: keep the last non-empty value seen.
	if u.TransactionID != "" {
		p.TransactionID = u.TransactionID
	}
	if u.PaymentReference != "" {
		p.PaymentReference = u.PaymentReference
	}
	if u.Channel != "" {
		p.Channel = u.Channel
	}
	if u.Message != "" {
		p.Message = u.Message
	}
	if u.ErrorMessage != "" {
		p.ErrorMessage = u.ErrorMessage
	}
	if u.CardPaymentLink != "" {
		p.CardPaymentLink = u.CardPaymentLink
	}
	if len(u.Raw) > 0 {
		p.RawResponse = datatypes.JSON(u.Raw)
	}
	return true, firstSuccess
}
