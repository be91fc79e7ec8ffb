package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/globalagency/payments/internal/app/service/payment"
	"github.com/globalagency/payments/internal/app/service/webhook_log"
	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/logctx"
	"github.com/globalagency/payments/pkg/metrics"
	"github.com/globalagency/payments/pkg/response"
	"github.com/globalagency/payments/pkg/types"
)

// @Summary      ClickPesa Webhook
// @Description  Handles asynchronous payment status callbacks from ClickPesa. Always acknowledges with 200 so the gateway stops retrying; failures are recorded in the webhook log.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body payment.WebhookPayload true "ClickPesa webhook payload"
// @Success      200  {object}  handlers.RespOK
// @Router       /webhook/clickpesa [post]
func ApiClickPesaWebhook(coord payment.Coordinator, wlog *webhook_log.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logctx.FromGin(c, log)
		l.Infow("webhook_clickpesa_received")

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			l.Errorw("webhook_clickpesa_read_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		entry := &models.PaymentWebhookLog{
			Gateway:    string(types.PaymentGatewayClickPesa),
			ReceivedAt: time.Now(),
			Data:       datatypes.JSON(body),
			Status:     models.PaymentWebhookLogStatusReceived,
		}
		if tid, ok := c.Request.Context().Value("traceID").(string); ok {
			entry.TraceID = tid
		}

		var payload payment.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			entry.Status = models.PaymentWebhookLogStatusHandleFailed
			wlog.Save(c.Request.Context(), entry)
			metrics.WebhooksReceived.WithLabelValues("malformed").Inc()
			l.Errorw("webhook_clickpesa_malformed", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		entry.OrderReference = payload.OrderReference

		// Whatever happens below, the gateway gets a 200: a retry cannot fix
		// an unknown reference or a handling bug, and the log keeps the body.
		if err := coord.HandleWebhook(c.Request.Context(), &payload); err != nil {
			entry.Status = models.PaymentWebhookLogStatusHandleFailed
			result := datatypes.JSON(mustJSON(map[string]string{"error": err.Error()}))
			entry.Result = &result
			wlog.Save(c.Request.Context(), entry)

			if errors.Is(err, payment.ErrPaymentNotFound) {
				metrics.WebhooksReceived.WithLabelValues("unknown_reference").Inc()
				l.Warnw("webhook_clickpesa_unknown_reference", "order_reference", payload.OrderReference)
			} else {
				metrics.WebhooksReceived.WithLabelValues("error").Inc()
				l.Errorw("webhook_clickpesa_handle_error", "order_reference", payload.OrderReference, "error", err.Error())
			}
			c.JSON(http.StatusOK, response.OKT[any](nil))
			return
		}

		entry.Status = models.PaymentWebhookLogStatusHandled
		wlog.Save(c.Request.Context(), entry)
		metrics.WebhooksReceived.WithLabelValues("handled").Inc()
		l.Infow("webhook_clickpesa_handled", "order_reference", payload.OrderReference)
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, coord payment.Coordinator, wlog *webhook_log.Service, log *zap.SugaredLogger) {
	r.POST("/clickpesa", ApiClickPesaWebhook(coord, wlog, log))
}
