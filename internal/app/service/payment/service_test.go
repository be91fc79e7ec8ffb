package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/internal/platform/clickpesa"
	"github.com/globalagency/payments/pkg/config"
	"github.com/globalagency/payments/pkg/types"
)

type fakeStore struct {
	mu   sync.Mutex
	rows map[string]*models.Payment // keyed by order reference
}

func newFakeStore() *fakeStore { return &fakeStore{rows: map[string]*models.Payment{}} }

func (s *fakeStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[p.OrderReference]; ok {
		return fmt.Errorf("duplicate order reference %s", p.OrderReference)
	}
	cp := *p
	s.rows[p.OrderReference] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrPaymentNotFound, id)
}

func (s *fakeStore) GetByReference(_ context.Context, ref string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[ref]
	if !ok {
		return nil, fmt.Errorf("%w: reference %s", ErrPaymentNotFound, ref)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdateLocked(_ context.Context, ref string, fn func(p *models.Payment) (bool, error)) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[ref]
	if !ok {
		return nil, fmt.Errorf("%w: reference %s", ErrPaymentNotFound, ref)
	}
	cp := *p
	changed, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	if changed {
		*p = cp
	}
	out := cp
	return &out, nil
}

func (s *fakeStore) Scan(_ context.Context, _ *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &ScanPaymentsResponse{}
	for _, p := range s.rows {
		cp := *p
		res.Items = append(res.Items, &cp)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

type fakeGateway struct {
	preview     *clickpesa.PreviewResponse
	previewErr  error
	initiate    *clickpesa.InitiateResponse
	initiateErr error
	status      *clickpesa.StatusResponse
	statusErr   error

	previewCalls  int
	initiateCalls int
	statusCalls   int
	lastPush      clickpesa.PushRequest
	lastCard      clickpesa.CardRequest
}

func (g *fakeGateway) PreviewUSSDPush(_ context.Context, req clickpesa.PushRequest) (*clickpesa.PreviewResponse, error) {
	g.previewCalls++
	g.lastPush = req
	return g.preview, g.previewErr
}

func (g *fakeGateway) InitiateUSSDPush(_ context.Context, req clickpesa.PushRequest) (*clickpesa.InitiateResponse, error) {
	g.initiateCalls++
	g.lastPush = req
	return g.initiate, g.initiateErr
}

func (g *fakeGateway) PreviewCardPayment(_ context.Context, req clickpesa.CardRequest) (*clickpesa.PreviewResponse, error) {
	g.previewCalls++
	g.lastCard = req
	return g.preview, g.previewErr
}

func (g *fakeGateway) InitiateCardPayment(_ context.Context, req clickpesa.CardRequest) (*clickpesa.InitiateResponse, error) {
	g.initiateCalls++
	g.lastCard = req
	return g.initiate, g.initiateErr
}

func (g *fakeGateway) QueryPaymentStatus(_ context.Context, _ string) (*clickpesa.StatusResponse, error) {
	g.statusCalls++
	return g.status, g.statusErr
}

type fakeApps struct {
	mu                  sync.Mutex
	apps                map[uint]*models.Application
	markPaidCalls       int
	paidFired           int
	pendingVerification int

	// failMarkPaid makes the next N MarkPaid calls fail with a transient error.
	failMarkPaid int
}

func newFakeApps() *fakeApps {
	return &fakeApps{apps: map[uint]*models.Application{
		1: {
			ID:            1,
			StudentID:     "stu-1",
			Status:        types.ApplicationStatusPendingPayment,
			PaymentStatus: types.ApplicationPaymentStatusNotPaid,
		},
	}}
}

func (a *fakeApps) Get(_ context.Context, id uint) (*models.Application, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrApplicationNotFound, id)
	}
	cp := *app
	return &cp, nil
}

func (a *fakeApps) MarkPaid(_ context.Context, applicationID uint, _ string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markPaidCalls++
	if a.failMarkPaid > 0 {
		a.failMarkPaid--
		return false, errors.New("db unavailable")
	}
	app, ok := a.apps[applicationID]
	if !ok {
		return false, fmt.Errorf("%w: id %d", ErrApplicationNotFound, applicationID)
	}
	if app.IsPaid {
		return false, nil
	}
	app.IsPaid = true
	app.PaymentStatus = types.ApplicationPaymentStatusPaid
	if app.Status == types.ApplicationStatusPendingPayment {
		app.Status = types.ApplicationStatusSubmitted
	}
	a.paidFired++
	return true, nil
}

func (a *fakeApps) MarkPendingVerification(_ context.Context, applicationID uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.apps[applicationID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrApplicationNotFound, applicationID)
	}
	app.PaymentStatus = types.ApplicationPaymentStatusPendingVerification
	a.pendingVerification++
	return nil
}

func (a *fakeApps) ClearPendingVerification(_ context.Context, applicationID uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.apps[applicationID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrApplicationNotFound, applicationID)
	}
	if !app.IsPaid && app.PaymentStatus == types.ApplicationPaymentStatusPendingVerification {
		app.PaymentStatus = types.ApplicationPaymentStatusNotPaid
	}
	return nil
}

func availablePreview() *clickpesa.PreviewResponse {
	return &clickpesa.PreviewResponse{ActiveMethods: []clickpesa.ActiveMethod{
		{Name: "TIGO-PESA", Status: "AVAILABLE"},
	}}
}

func newTestService(t *testing.T, gw Gateway) (*Service, *fakeStore, *fakeApps) {
	t.Helper()
	cfg := &config.Config{DefaultFeeAmount: "5000", DefaultFeeCurrency: "TZS"}
	store := newFakeStore()
	apps := newFakeApps()
	svc, err := newService(cfg, zap.NewNop().Sugar(), store, gw, apps)
	require.NoError(t, err)
	return svc, store, apps
}

func TestStartPayment_MobileMoney(t *testing.T) {
	gw := &fakeGateway{
		preview:  availablePreview(),
		initiate: &clickpesa.InitiateResponse{ID: "tx-1", Status: "PROCESSING", Channel: "TIGO-PESA"},
	}
	svc, store, _ := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodMobileMoney,
		PayerName:     "Asha Juma",
		PayerPhone:    "0712345678",
	})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusProcessing, handle.Status)
	require.NotEmpty(t, handle.OrderReference)

	require.Equal(t, 1, gw.previewCalls)
	require.Equal(t, 1, gw.initiateCalls)
	require.Equal(t, "255712345678", gw.lastPush.PhoneNumber)
	require.Equal(t, "5000", gw.lastPush.Amount.String())
	require.Equal(t, "TZS", gw.lastPush.Currency)

	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, "255712345678", p.PayerPhone)
	require.Equal(t, "tx-1", p.TransactionID)
	require.Equal(t, types.PaymentGatewayClickPesa, p.Gateway)
}

func TestStartPayment_MobileMoney_NoChannelAvailable(t *testing.T) {
	gw := &fakeGateway{
		preview: &clickpesa.PreviewResponse{ActiveMethods: []clickpesa.ActiveMethod{
			{Name: "TIGO-PESA", Status: "UNAVAILABLE"},
		}},
	}
	svc, store, _ := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodMobileMoney,
		PayerPhone:    "0712345678",
	})
	require.ErrorIs(t, err, clickpesa.ErrChannelUnavailable)
	require.Nil(t, handle)
	require.Equal(t, 0, gw.initiateCalls)

	// The attempt is recorded and stays pending so it can be retried.
	res, err := store.Scan(context.Background(), &ScanPaymentsRequest{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, types.PaymentStatusPending, res.Items[0].Status)
}

func TestStartPayment_InvalidPhoneCreatesNothing(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, _ := newTestService(t, gw)

	_, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodMobileMoney,
		PayerPhone:    "12345",
	})
	require.ErrorIs(t, err, clickpesa.ErrValidation)
	require.Equal(t, 0, gw.previewCalls)

	res, err := store.Scan(context.Background(), &ScanPaymentsRequest{})
	require.NoError(t, err)
	require.Empty(t, res.Items)
}

func TestStartPayment_Card(t *testing.T) {
	gw := &fakeGateway{
		preview:  availablePreview(),
		initiate: &clickpesa.InitiateResponse{ID: "tx-7", Status: "PROCESSING", CardPaymentLink: "https://checkout.example/pay/tx-7"},
	}
	svc, store, _ := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodCard,
		PayerName:     "Asha Juma",
		PayerEmail:    "asha@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.example/pay/tx-7", handle.CardPaymentLink)

	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, "https://checkout.example/pay/tx-7", p.CardPaymentLink)
}

func TestStartPayment_CardRequiresNameAndEmail(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeGateway{})

	_, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodCard,
		PayerName:     "Asha Juma",
	})
	require.ErrorIs(t, err, clickpesa.ErrValidation)
}

func TestStartPayment_BankTransferSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, apps := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodBankTransfer,
		PayerName:     "Asha Juma",
	})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPending, handle.Status)
	require.Equal(t, 0, gw.previewCalls)
	require.Equal(t, 0, gw.initiateCalls)
	require.Equal(t, 1, apps.pendingVerification)

	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, types.PaymentGatewayManual, p.Gateway)
}

func TestStartPayment_UnknownApplication(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeGateway{})

	_, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 404,
		Method:        types.PaymentMethodMobileMoney,
		PayerPhone:    "0712345678",
	})
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestStartPayment_UnsupportedMethod(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeGateway{})

	_, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        "cheque",
	})
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func startProcessingPayment(t *testing.T, svc *Service, gw *fakeGateway) *PaymentHandle {
	t.Helper()
	gw.preview = availablePreview()
	gw.initiate = &clickpesa.InitiateResponse{ID: "tx-1", Status: "PROCESSING", Channel: "TIGO-PESA"}
	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodMobileMoney,
		PayerPhone:    "0712345678",
	})
	require.NoError(t, err)
	return handle
}

func TestHandleWebhook_DuplicateDeliveriesFirePaidEffectOnce(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	payload := &WebhookPayload{
		OrderReference:   handle.OrderReference,
		Status:           "SUCCESS",
		ID:               "tx-1",
		PaymentReference: "CP-REF-1",
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	}

	require.Equal(t, 1, apps.paidFired)

	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, p.Status)
	require.True(t, p.IsSuccessful)
	require.Equal(t, "CP-REF-1", p.PaymentReference)

	app, err := apps.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, app.IsPaid)
	require.Equal(t, types.ApplicationStatusSubmitted, app.Status)
	require.Equal(t, types.ApplicationPaymentStatusPaid, app.PaymentStatus)
}

func TestHandleWebhook_RedeliveryRecoversLostPaidEffect(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	// The application-side write fails once after the payment row committed.
	apps.failMarkPaid = 1
	payload := &WebhookPayload{OrderReference: handle.OrderReference, Status: "SUCCESS"}
	require.Error(t, svc.HandleWebhook(context.Background(), payload))
	require.Equal(t, 0, apps.paidFired)

	// The gateway redelivers the identical report; the effect fires now even
	// though the payment was already in a successful state.
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	require.Equal(t, 1, apps.paidFired)

	app, err := apps.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, app.IsPaid)
}

func TestGetPaymentStatus_PollRecoversLostPaidEffect(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	apps.failMarkPaid = 1
	require.Error(t, svc.HandleWebhook(context.Background(), &WebhookPayload{
		OrderReference: handle.OrderReference,
		Status:         "SUCCESS",
	}))
	require.Equal(t, 0, apps.paidFired)

	// No webhook redelivery arrives, but a status poll sees the same terminal
	// state and heals the effect.
	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-1", Status: "SUCCESS"},
	}}
	_, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, 1, apps.paidFired)
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeGateway{})

	err := svc.HandleWebhook(context.Background(), &WebhookPayload{
		OrderReference: "APP999NOPE",
		Status:         "SUCCESS",
	})
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetPaymentStatus_StalePollDoesNotDemoteSuccess(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	require.NoError(t, svc.HandleWebhook(context.Background(), &WebhookPayload{
		OrderReference: handle.OrderReference,
		Status:         "SUCCESS",
	}))
	require.Equal(t, 1, apps.paidFired)

	// A poll racing behind the webhook still sees the old gateway state.
	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-1", Status: "PROCESSING"},
	}}
	view, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, view.Status)
	require.Equal(t, 1, apps.paidFired)
}

func TestGetPaymentStatus_PollSettlesBeforeWebhook(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-1", Status: "SUCCESS", PaymentReference: "CP-REF-2"},
	}}
	view, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, view.Status)
	require.Equal(t, 1, apps.paidFired)

	// The webhook for the same settlement arrives later; nothing refires.
	require.NoError(t, svc.HandleWebhook(context.Background(), &WebhookPayload{
		OrderReference: handle.OrderReference,
		Status:         "SUCCESS",
	}))
	require.Equal(t, 1, apps.paidFired)
}

func TestWebhookSuccessOverwritesPollFailure(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	// A poll times out gateway-side and reports the charge failed.
	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-1", Status: "FAILED", Message: "timeout"},
	}}
	view, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusFailed, view.Status)
	require.Equal(t, 0, apps.paidFired)

	// The webhook later corrects the record: the charge actually went through.
	require.NoError(t, svc.HandleWebhook(context.Background(), &WebhookPayload{
		OrderReference: handle.OrderReference,
		Status:         "SUCCESS",
	}))

	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, p.Status)
	require.Equal(t, 1, apps.paidFired)
}

func TestGetPaymentStatus_UsesFirstRecordAsLatest(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-2", Status: "SUCCESS"},
		{ID: "tx-1", Status: "PROCESSING"},
	}}
	view, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, view.Status)
	require.Equal(t, "tx-2", view.TransactionID)
}

func TestGetPaymentStatus_ManualPaymentNeverPolls(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	view, err := svc.GetPaymentStatus(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPending, view.Status)
	require.Equal(t, 0, gw.statusCalls)
}

func TestCancelPayment_OnlyWhilePending(t *testing.T) {
	gw := &fakeGateway{}
	svc, store, _ := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelPayment(context.Background(), handle.PaymentID))
	p, err := store.GetByReference(context.Background(), handle.OrderReference)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusFailed, p.Status)

	processing := startProcessingPayment(t, svc, gw)
	err = svc.CancelPayment(context.Background(), processing.PaymentID)
	require.ErrorIs(t, err, ErrCancelNotAllowed)
}

func TestCancelPayment_BankTransferResetsPendingVerification(t *testing.T) {
	svc, _, apps := newTestService(t, &fakeGateway{})

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	app, err := apps.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, types.ApplicationPaymentStatusPendingVerification, app.PaymentStatus)

	// Withdrawing the claim leaves nothing to verify.
	require.NoError(t, svc.CancelPayment(context.Background(), handle.PaymentID))
	app, err = apps.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, types.ApplicationPaymentStatusNotPaid, app.PaymentStatus)
}

func TestVerifyManualPayment(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)

	handle, err := svc.StartPayment(context.Background(), &StartPaymentRequest{
		ApplicationID: 1,
		Method:        types.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	view, err := svc.VerifyManualPayment(context.Background(), handle.PaymentID, true)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, view.Status)
	require.Equal(t, 1, apps.paidFired)

	// Verifying again is idempotent for the paid effect.
	_, err = svc.VerifyManualPayment(context.Background(), handle.PaymentID, true)
	require.NoError(t, err)
	require.Equal(t, 1, apps.paidFired)
}

func TestVerifyManualPayment_RejectsGatewayPayments(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	_, err := svc.VerifyManualPayment(context.Background(), handle.PaymentID, true)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestConcurrentWebhookAndPoll_SinglePaidEffect(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, apps := newTestService(t, gw)
	handle := startProcessingPayment(t, svc, gw)

	gw.status = &clickpesa.StatusResponse{Records: []clickpesa.PaymentRecord{
		{ID: "tx-1", Status: "SUCCESS"},
	}}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.HandleWebhook(context.Background(), &WebhookPayload{
				OrderReference: handle.OrderReference,
				Status:         "SUCCESS",
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.GetPaymentStatus(context.Background(), handle.PaymentID)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, apps.paidFired)
}

func TestErrCancelNotAllowed_IsWrapFriendly(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrCancelNotAllowed)
	require.True(t, errors.Is(err, ErrCancelNotAllowed))
}
