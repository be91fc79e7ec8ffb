package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/globalagency/payments/internal/app/service/payment"
	"github.com/globalagency/payments/internal/app/service/statistics"
	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/internal/platform/clickpesa"
	"github.com/globalagency/payments/pkg/response"
	"github.com/globalagency/payments/pkg/types"
)

type ListPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type PaymentItem struct {
	ID               string               `json:"id"`
	ApplicationID    uint                 `json:"application_id"`
	OrderReference   string               `json:"order_reference"`
	PayerName        string               `json:"payer_name"`
	PayerEmail       string               `json:"payer_email"`
	PayerPhone       string               `json:"payer_phone"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         string               `json:"currency"`
	Method           types.PaymentMethod  `json:"method"`
	Gateway          types.PaymentGateway `json:"gateway"`
	Status           types.PaymentStatus  `json:"status"`
	IsSuccessful     bool                 `json:"is_successful"`
	TransactionID    string               `json:"transaction_id"`
	PaymentReference string               `json:"payment_reference"`
	Channel          string               `json:"channel"`
	Message          string               `json:"message"`
	ErrorMessage     string               `json:"error_message"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toPaymentItem(m *models.Payment) *PaymentItem {
	return &PaymentItem{
		ID:               m.ID,
		ApplicationID:    m.ApplicationID,
		OrderReference:   m.OrderReference,
		PayerName:        m.PayerName,
		PayerEmail:       m.PayerEmail,
		PayerPhone:       m.PayerPhone,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Method:           m.Method,
		Gateway:          m.Gateway,
		Status:           m.Status,
		IsSuccessful:     m.IsSuccessful,
		TransactionID:    m.TransactionID,
		PaymentReference: m.PaymentReference,
		Channel:          m.Channel,
		Message:          m.Message,
		ErrorMessage:     m.ErrorMessage,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type ListPaymentsResponse struct {
	Items []*PaymentItem `json:"items"`
	Total int64          `json:"total"`
}

// @Summary      List Payments (Admin)
// @Description  Retrieves a paginated and filterable list of payments.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListPaymentsRequest true "List payments request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/admin/list_payments [post]
func ApiListPayments(coord payment.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &payment.ScanPaymentsRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := coord.ScanPayments(c.Request.Context(), scanReq)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.Payment, _ int) *PaymentItem { return toPaymentItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListPaymentsResponse{Items: items, Total: res.Total}))
	}
}

// @Summary      Get Payment Statistics (Admin)
// @Description  Retrieves daily payment statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.PaymentStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespPaymentStatistic
// @Router       /api/v1/admin/get_payment_statistic [post]
func ApiGetPaymentStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.PaymentStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetPaymentStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Verify Bank Transfer (Admin)
// @Description  Records the operator's verdict on an offline bank transfer. Approving settles the payment and marks the application paid.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.VerifyBankTransferRequest true "Verification verdict"
// @Success      200  {object}  handlers.RespPaymentView
// @Router       /api/v1/admin/verify_bank_transfer [post]
func ApiVerifyBankTransfer(coord payment.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyBankTransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.PaymentID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing payment_id"))
			return
		}
		view, err := coord.VerifyManualPayment(c.Request.Context(), req.PaymentID, req.Approve)
		if err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, payment.ErrPaymentNotFound) || errors.Is(err, payment.ErrUnsupportedMethod) {
				code = response.APIResponseCodeBadRequest
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(view))
	}
}

type VerifyBankTransferRequest struct {
	PaymentID string `json:"payment_id"`
	Approve   bool   `json:"approve"`
	// OperatorID identifies who verified; kept for the access log only.
	OperatorID string `json:"operator_id"`
}

// @Summary      Get Account Balance (Admin)
// @Description  Reads the merchant account balance from the gateway. Doubles as a credentials and allowlist smoke test.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/account_balance [get]
func ApiGetAccountBalance(client *clickpesa.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		balance, err := client.GetAccountBalance(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(balance))
	}
}

func RegisterAdminRoutes(r gin.IRouter, coord payment.Coordinator, stats *statistics.Service, client *clickpesa.Client) {
	r.POST("/list_payments", ApiListPayments(coord))
	r.POST("/get_payment_statistic", ApiGetPaymentStatistic(stats))
	r.POST("/verify_bank_transfer", ApiVerifyBankTransfer(coord))
	r.GET("/account_balance", ApiGetAccountBalance(client))
}
