package clickpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/globalagency/payments/pkg/config"
	"github.com/globalagency/payments/pkg/metrics"
)

const maxResponseBytes = 1 << 20

// Client speaks the gateway's two-phase preview/initiate/status protocol over
// HTTPS. It is stateless per call and performs no silent retries: retrying a
// charge behind the caller's back risks duplicate push prompts on the payer's
// device.
type Client struct {
	cfg  *config.ClickPesaConfig
	http *http.Client
	auth authStrategy
	log  *zap.SugaredLogger
}

// New builds a client from an already-validated configuration. Validation is
// repeated here so a client constructed outside the fx graph fails just as
// fast.
func New(cfg *config.ClickPesaConfig, log *zap.SugaredLogger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	var auth authStrategy = staticKeyAuth{}
	if cfg.AuthMethod == config.AuthMethodBearerToken {
		auth = tokenBearerAuth{}
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
		auth: auth,
		log:  log,
	}, nil
}

// PreviewUSSDPush validates a mobile-money charge without moving money and
// returns the settlement channels currently able to take it.
func (c *Client) PreviewUSSDPush(ctx context.Context, req PushRequest) (*PreviewResponse, error) {
	if err := validatePush(req); err != nil {
		return nil, err
	}
	payload := map[string]any{
		"amount":             req.Amount.String(),
		"currency":           req.Currency,
		"orderReference":     req.OrderReference,
		"phoneNumber":        req.PhoneNumber,
		"fetchSenderDetails": true,
	}
	var res PreviewResponse
	raw, err := c.doJSON(ctx, "preview_ussd_push", http.MethodPost, "/payments/preview-ussd-push-request", payload, &res, c.auth)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

// InitiateUSSDPush triggers the actual push prompt on the payer's device.
// Preview must have reported an available channel first.
func (c *Client) InitiateUSSDPush(ctx context.Context, req PushRequest) (*InitiateResponse, error) {
	if err := validatePush(req); err != nil {
		return nil, err
	}
	payload := map[string]any{
		"amount":         req.Amount.String(),
		"currency":       req.Currency,
		"orderReference": req.OrderReference,
		"phoneNumber":    req.PhoneNumber,
	}
	var res InitiateResponse
	raw, err := c.doJSON(ctx, "initiate_ussd_push", http.MethodPost, "/payments/initiate-ussd-push-request", payload, &res, c.auth)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

// PreviewCardPayment validates a card charge without moving money.
func (c *Client) PreviewCardPayment(ctx context.Context, req CardRequest) (*PreviewResponse, error) {
	if err := validateCard(req); err != nil {
		return nil, err
	}
	payload := map[string]any{
		"amount":         req.Amount.String(),
		"currency":       req.Currency,
		"orderReference": req.OrderReference,
	}
	var res PreviewResponse
	raw, err := c.doJSON(ctx, "preview_card", http.MethodPost, "/payments/preview-card-payment", payload, &res, c.auth)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

// InitiateCardPayment starts a card charge; the response carries the hosted
// checkout URL the payer must be sent to.
func (c *Client) InitiateCardPayment(ctx context.Context, req CardRequest) (*InitiateResponse, error) {
	if err := validateCard(req); err != nil {
		return nil, err
	}
	customer := map[string]any{
		"name":  req.Customer.Name,
		"email": req.Customer.Email,
	}
	if req.Customer.Phone != "" {
		customer["phoneNumber"] = req.Customer.Phone
	}
	payload := map[string]any{
		"amount":         req.Amount.String(),
		"currency":       req.Currency,
		"orderReference": req.OrderReference,
		"customer":       customer,
	}
	var res InitiateResponse
	raw, err := c.doJSON(ctx, "initiate_card", http.MethodPost, "/payments/initiate-card-payment", payload, &res, c.auth)
	if err != nil {
		return nil, err
	}
	res.Raw = raw
	return &res, nil
}

// QueryPaymentStatus returns the gateway's current view of an order
// reference. The endpoint may answer with a list of records or a single
// object depending on the reference's history.
func (c *Client) QueryPaymentStatus(ctx context.Context, orderReference string) (*StatusResponse, error) {
	if orderReference == "" {
		return nil, fmt.Errorf("%w: empty order reference", ErrValidation)
	}
	raw, err := c.doJSON(ctx, "query_status", http.MethodGet, "/payments/"+orderReference, nil, nil, c.auth)
	if err != nil {
		return nil, err
	}

	res := &StatusResponse{Raw: raw}
	if err := json.Unmarshal(raw, &res.Records); err != nil {
		var single PaymentRecord
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: status body is neither a record list nor a record: %s", ErrUnexpectedResponse, truncate(raw))
		}
		res.Records = []PaymentRecord{single}
	}
	return res, nil
}

// GetAccountBalance reports the merchant account balance. Useful as an
// operator smoke test that credentials and allowlisting work.
func (c *Client) GetAccountBalance(ctx context.Context) (*AccountBalance, error) {
	raw, err := c.doJSON(ctx, "account_balance", http.MethodGet, "/account/balance", nil, nil, c.auth)
	if err != nil {
		return nil, err
	}
	return &AccountBalance{Balances: raw}, nil
}

func validatePush(req PushRequest) error {
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrValidation, req.Amount)
	}
	if len(req.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrValidation, req.Currency)
	}
	if req.OrderReference == "" {
		return fmt.Errorf("%w: empty order reference", ErrValidation)
	}
	if len(req.PhoneNumber) != 12 || !strings.HasPrefix(req.PhoneNumber, phoneCountryCode) {
		return fmt.Errorf("%w: phone number %q is not in international format, normalize it first", ErrValidation, req.PhoneNumber)
	}
	return nil
}

func validateCard(req CardRequest) error {
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrValidation, req.Amount)
	}
	if len(req.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrValidation, req.Currency)
	}
	if req.OrderReference == "" {
		return fmt.Errorf("%w: empty order reference", ErrValidation)
	}
	if req.Customer.Email == "" || req.Customer.Name == "" {
		return fmt.Errorf("%w: card payments require customer name and email", ErrValidation)
	}
	return nil
}

// doJSON performs one bounded-timeout HTTP exchange and maps failures onto
// the error taxonomy. A checksum is attached to POST payloads when a signing
// secret is configured.
func (c *Client) doJSON(ctx context.Context, op, method, path string, payload map[string]any, out any, auth authStrategy) (_ []byte, retErr error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if retErr != nil {
			outcome = "error"
		}
		metrics.GatewayCalls.WithLabelValues(op, outcome).Inc()
		metrics.GatewayCallDuration.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	}()

	var body io.Reader
	if payload != nil {
		if c.cfg.ChecksumSecret != "" {
			payload["checksum"] = Checksum(payload, c.cfg.ChecksumSecret)
		}
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot encode request payload: %v", ErrValidation, err)
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if err := auth.apply(ctx, c, req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Errorw("clickpesa_auth_rejected", "path", path, "body", truncate(raw))
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, authDiagnostic(string(raw)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayBusiness, resp.StatusCode, gatewayMessage(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("%w: status %d with undecodable body: %s", ErrUnexpectedResponse, resp.StatusCode, truncate(raw))
		}
	}
	return raw, nil
}

// gatewayMessage extracts the human-readable decline reason from an error
// body, falling back to the raw text.
func gatewayMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return truncate(raw)
}

func truncate(raw []byte) string {
	const limit = 200
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
