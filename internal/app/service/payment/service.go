package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/internal/platform/clickpesa"
	"github.com/globalagency/payments/pkg/config"
	"github.com/globalagency/payments/pkg/logctx"
	"github.com/globalagency/payments/pkg/metrics"
	"github.com/globalagency/payments/pkg/tool"
	"github.com/globalagency/payments/pkg/types"
)

// Gateway is the slice of the wire client the coordinator needs.
type Gateway interface {
	PreviewUSSDPush(ctx context.Context, req clickpesa.PushRequest) (*clickpesa.PreviewResponse, error)
	InitiateUSSDPush(ctx context.Context, req clickpesa.PushRequest) (*clickpesa.InitiateResponse, error)
	PreviewCardPayment(ctx context.Context, req clickpesa.CardRequest) (*clickpesa.PreviewResponse, error)
	InitiateCardPayment(ctx context.Context, req clickpesa.CardRequest) (*clickpesa.InitiateResponse, error)
	QueryPaymentStatus(ctx context.Context, orderReference string) (*clickpesa.StatusResponse, error)
}

var _ Gateway = (*clickpesa.Client)(nil)

// Applications is the collaborator contract toward the business layer: read
// an application and flip its paid state at most once.
type Applications interface {
	Get(ctx context.Context, id uint) (*models.Application, error)
	// MarkPaid returns true when this call actually fired the effect.
	MarkPaid(ctx context.Context, applicationID uint, paymentID string) (bool, error)
	MarkPendingVerification(ctx context.Context, applicationID uint) error
	ClearPendingVerification(ctx context.Context, applicationID uint) error
}

type Service struct {
	log   *zap.SugaredLogger
	store Store
	gw    Gateway
	apps  Applications
	locks *refLocks

	defaultFee      decimal.Decimal
	defaultCurrency string
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, store Store, gw *clickpesa.Client, apps Applications) (Coordinator, error) {
	return newService(cfg, log, store, gw, apps)
}

func newService(cfg *config.Config, log *zap.SugaredLogger, store Store, gw Gateway, apps Applications) (*Service, error) {
	fee, err := decimal.NewFromString(cfg.DefaultFeeAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid default_fee_amount %q: %w", cfg.DefaultFeeAmount, err)
	}
	return &Service{
		log:             log,
		store:           store,
		gw:              gw,
		apps:            apps,
		locks:           newRefLocks(),
		defaultFee:      fee,
		defaultCurrency: cfg.DefaultFeeCurrency,
	}, nil
}

func (s *Service) StartPayment(ctx context.Context, req *StartPaymentRequest) (*PaymentHandle, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}

	app, err := s.apps.Get(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	amount := app.PaymentAmount
	if amount.Sign() <= 0 {
		amount = s.defaultFee
	}
	currency := app.PaymentCurrency
	if currency == "" {
		currency = s.defaultCurrency
	}

	p := &models.Payment{
		ID:             tool.GenerateUUIDV7(),
		ApplicationID:  app.ID,
		OrderReference: tool.GenerateOrderReference(app.ID),
		PayerName:      req.PayerName,
		PayerEmail:     req.PayerEmail,
		PayerPhone:     req.PayerPhone,
		Amount:         amount,
		Currency:       currency,
		Method:         req.Method,
		Gateway:        gatewayFor(req.Method),
		Status:         types.PaymentStatusPending,
	}

	switch req.Method {
	case types.PaymentMethodMobileMoney:
		return s.startMobileMoney(ctx, p)
	case types.PaymentMethodCard:
		return s.startCard(ctx, p)
	case types.PaymentMethodBankTransfer:
		return s.startBankTransfer(ctx, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}
}

func (s *Service) startMobileMoney(ctx context.Context, p *models.Payment) (*PaymentHandle, error) {
	// Validation failures must happen before any row or network call.
	phone, err := clickpesa.NormalizePhone(p.PayerPhone)
	if err != nil {
		return nil, err
	}
	p.PayerPhone = phone

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.PaymentsStarted.WithLabelValues(string(p.Method), string(p.Gateway)).Inc()
	log := logctx.FromCtx(ctx, s.log).With("order_reference", p.OrderReference)

	push := clickpesa.PushRequest{
		Amount:         p.Amount,
		Currency:       p.Currency,
		OrderReference: p.OrderReference,
		PhoneNumber:    phone,
	}

	preview, err := s.gw.PreviewUSSDPush(ctx, push)
	if err != nil {
		s.recordAttemptError(ctx, p.OrderReference, err)
		return nil, err
	}
	if !preview.HasAvailableChannel() {
		// Stop before any charge; the payment stays pending and may be
		// cancelled or retried later.
		log.Warnw("payment_no_channel_available")
		s.recordAudit(ctx, p.OrderReference, "no settlement channel available", preview.Raw)
		return nil, fmt.Errorf("%w: order %s", clickpesa.ErrChannelUnavailable, p.OrderReference)
	}

	initiated, err := s.gw.InitiateUSSDPush(ctx, push)
	if err != nil {
		s.recordAttemptError(ctx, p.OrderReference, err)
		return nil, err
	}
	log.Infow("payment_push_initiated", "transaction_id", initiated.ID, "channel", initiated.Channel)

	updated, _, err := s.reconcile(ctx, p.OrderReference, Update{
		Source:        SourceInitiate,
		Status:        clickpesa.MapStatus(initiated.Status),
		TransactionID: initiated.ID,
		Channel:       initiated.Channel,
		Message:       initiated.Message,
		Raw:           initiated.Raw,
	})
	if err != nil {
		return nil, err
	}
	return handleOf(updated), nil
}

func (s *Service) startCard(ctx context.Context, p *models.Payment) (*PaymentHandle, error) {
	if p.PayerEmail == "" || p.PayerName == "" {
		return nil, fmt.Errorf("%w: card payments require payer name and email", clickpesa.ErrValidation)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.PaymentsStarted.WithLabelValues(string(p.Method), string(p.Gateway)).Inc()
	log := logctx.FromCtx(ctx, s.log).With("order_reference", p.OrderReference)

	card := clickpesa.CardRequest{
		Amount:         p.Amount,
		Currency:       p.Currency,
		OrderReference: p.OrderReference,
		Customer: clickpesa.Customer{
			Name:  p.PayerName,
			Email: p.PayerEmail,
			Phone: p.PayerPhone,
		},
	}

	preview, err := s.gw.PreviewCardPayment(ctx, card)
	if err != nil {
		s.recordAttemptError(ctx, p.OrderReference, err)
		return nil, err
	}
	if !preview.HasAvailableChannel() {
		log.Warnw("payment_no_channel_available")
		s.recordAudit(ctx, p.OrderReference, "no settlement channel available", preview.Raw)
		return nil, fmt.Errorf("%w: order %s", clickpesa.ErrChannelUnavailable, p.OrderReference)
	}

	initiated, err := s.gw.InitiateCardPayment(ctx, card)
	if err != nil {
		s.recordAttemptError(ctx, p.OrderReference, err)
		return nil, err
	}
	log.Infow("payment_card_initiated", "transaction_id", initiated.ID)

	updated, _, err := s.reconcile(ctx, p.OrderReference, Update{
		Source:          SourceInitiate,
		Status:          clickpesa.MapStatus(initiated.Status),
		TransactionID:   initiated.ID,
		Channel:         initiated.Channel,
		Message:         initiated.Message,
		CardPaymentLink: initiated.CardPaymentLink,
		Raw:             initiated.Raw,
	})
	if err != nil {
		return nil, err
	}
	return handleOf(updated), nil
}

// startBankTransfer records a manual payment intake: no gateway involved, the
// attempt waits for an operator to verify the transfer.
func (s *Service) startBankTransfer(ctx context.Context, p *models.Payment) (*PaymentHandle, error) {
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.PaymentsStarted.WithLabelValues(string(p.Method), string(p.Gateway)).Inc()
	if err := s.apps.MarkPendingVerification(ctx, p.ApplicationID); err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_bank_transfer_recorded", "order_reference", p.OrderReference)
	return handleOf(p), nil
}

func (s *Service) GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentView, error) {
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Gateway == types.PaymentGatewayManual {
		return viewOf(p), nil
	}

	res, err := s.gw.QueryPaymentStatus(ctx, p.OrderReference)
	if err != nil {
		return nil, err
	}
	rec := res.Latest()
	if rec == nil {
		// The gateway knows nothing about the reference yet; nothing to merge.
		return viewOf(p), nil
	}

	updated, _, err := s.reconcile(ctx, p.OrderReference, Update{
		Source:           SourcePoll,
		Status:           clickpesa.MapStatus(rec.Status),
		TransactionID:    rec.ID,
		PaymentReference: rec.PaymentReference,
		Channel:          rec.Channel,
		Message:          rec.Message,
		Raw:              res.Raw,
	})
	if err != nil {
		return nil, err
	}
	return viewOf(updated), nil
}

func (s *Service) HandleWebhook(ctx context.Context, payload *WebhookPayload) error {
	if payload == nil || payload.OrderReference == "" {
		return fmt.Errorf("webhook payload missing order reference")
	}
	raw, _ := json.Marshal(payload)

	_, _, err := s.reconcile(ctx, payload.OrderReference, Update{
		Source:           SourceWebhook,
		Status:           clickpesa.MapStatus(payload.Status),
		TransactionID:    payload.ID,
		PaymentReference: payload.PaymentReference,
		Message:          payload.Message,
		Raw:              raw,
	})
	return err
}

func (s *Service) CancelPayment(ctx context.Context, paymentID string) error {
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	s.locks.lock(p.OrderReference)
	defer s.locks.unlock(p.OrderReference)

	_, err = s.store.UpdateLocked(ctx, p.OrderReference, func(p *models.Payment) (bool, error) {
		if p.Status != types.PaymentStatusPending {
			return false, fmt.Errorf("%w: status is %s", ErrCancelNotAllowed, p.Status)
		}
		p.Status = types.PaymentStatusFailed
		p.IsSuccessful = false
		p.ErrorMessage = "cancelled before initiation"
		return true, nil
	})
	if err != nil {
		return err
	}

	// Withdrawing a bank-transfer claim leaves nothing for an operator to
	// verify; put the application back to not_paid.
	if p.Gateway == types.PaymentGatewayManual {
		if err := s.apps.ClearPendingVerification(ctx, p.ApplicationID); err != nil {
			return fmt.Errorf("payment cancelled but failed to reset application: %w", err)
		}
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_cancelled", "payment_id", paymentID)
	return nil
}

func (s *Service) ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	return s.store.Scan(ctx, req)
}

// VerifyManualPayment settles or fails a bank-transfer payment on an
// operator's verdict. It runs through the same reconciliation path as gateway
// reports, so approving fires the one-time application paid effect.
func (s *Service) VerifyManualPayment(ctx context.Context, paymentID string, approve bool) (*PaymentView, error) {
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Gateway != types.PaymentGatewayManual {
		return nil, fmt.Errorf("%w: only manual payments take operator verification", ErrUnsupportedMethod)
	}

	status := types.PaymentStatusSuccess
	message := "verified by operator"
	if !approve {
		status = types.PaymentStatusFailed
		message = "rejected by operator"
	}
	updated, _, err := s.reconcile(ctx, p.OrderReference, Update{
		Source:  SourceOperator,
		Status:  status,
		Message: message,
	})
	if err != nil {
		return nil, err
	}
	return viewOf(updated), nil
}

// reconcile is the single update routine every channel funnels through. It
// serializes per order reference, applies the transition rule, and fires the
// one-time "application paid" effect.
//
// The effect is derived from the merged state, not from the edge of this
// particular update: MarkPaid is once-only on the application side, so when a
// transient failure loses the effect, the next delivery of the same terminal
// report (webhook redelivery, a poll) retries it instead of skipping it.
func (s *Service) reconcile(ctx context.Context, ref string, u Update) (*models.Payment, bool, error) {
	s.locks.lock(ref)
	defer s.locks.unlock(ref)

	p, err := s.store.UpdateLocked(ctx, ref, func(p *models.Payment) (bool, error) {
		accepted, _ := applyUpdate(p, u)
		return accepted, nil
	})
	if err != nil {
		return nil, false, err
	}

	log := logctx.FromCtx(ctx, s.log).With("order_reference", ref, "source", string(u.Source))
	log.Infow("payment_update_applied", "status", string(p.Status))

	if !p.IsSuccessful {
		return p, false, nil
	}
	fired, err := s.apps.MarkPaid(ctx, p.ApplicationID, p.ID)
	if err != nil {
		log.Errorw("mark_application_paid_failed", "application_id", p.ApplicationID, "error", err.Error())
		return p, false, fmt.Errorf("payment settled but failed to mark application paid: %w", err)
	}
	if fired {
		metrics.PaidEffects.Inc()
		log.Infow("application_marked_paid", "application_id", p.ApplicationID)
	}
	return p, fired, nil
}

// recordAttemptError keeps the gateway failure on the row for audit without
// touching the status.
func (s *Service) recordAttemptError(ctx context.Context, ref string, cause error) {
	_, err := s.store.UpdateLocked(ctx, ref, func(p *models.Payment) (bool, error) {
		p.ErrorMessage = cause.Error()
		return true, nil
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("payment_audit_write_failed", "order_reference", ref, "error", err.Error())
	}
}

func (s *Service) recordAudit(ctx context.Context, ref string, message string, raw []byte) {
	_, err := s.store.UpdateLocked(ctx, ref, func(p *models.Payment) (bool, error) {
		p.Message = message
		if len(raw) > 0 {
			p.RawResponse = raw
		}
		return true, nil
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("payment_audit_write_failed", "order_reference", ref, "error", err.Error())
	}
}

func gatewayFor(m types.PaymentMethod) types.PaymentGateway {
	if m == types.PaymentMethodBankTransfer {
		return types.PaymentGatewayManual
	}
	return types.PaymentGatewayClickPesa
}

func handleOf(p *models.Payment) *PaymentHandle {
	return &PaymentHandle{
		PaymentID:       p.ID,
		OrderReference:  p.OrderReference,
		Status:          p.Status,
		CardPaymentLink: p.CardPaymentLink,
		Message:         p.Message,
	}
}

func viewOf(p *models.Payment) *PaymentView {
	return &PaymentView{
		PaymentID:        p.ID,
		ApplicationID:    p.ApplicationID,
		OrderReference:   p.OrderReference,
		Status:           p.Status,
		IsSuccessful:     p.IsSuccessful,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           p.Method,
		Gateway:          p.Gateway,
		TransactionID:    p.TransactionID,
		PaymentReference: p.PaymentReference,
		Channel:          p.Channel,
		CardPaymentLink:  p.CardPaymentLink,
		Message:          p.Message,
		ErrorMessage:     p.ErrorMessage,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
