package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globalagency/payments/internal/app/service/payment"
	"github.com/globalagency/payments/internal/platform/clickpesa"
	"github.com/globalagency/payments/pkg/response"
)

// @Summary      Start Payment
// @Description  Creates a payment for an application and drives the gateway preview/initiate flow.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body payment.StartPaymentRequest true "Start payment request"
// @Success      200  {object}  handlers.RespStartPayment
// @Router       /api/v1/payment/start [post]
func ApiStartPayment(coord payment.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.StartPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		handle, err := coord.StartPayment(c.Request.Context(), &req)
		if err != nil {
			switch {
			case errors.Is(err, payment.ErrApplicationNotFound),
				errors.Is(err, payment.ErrUnsupportedMethod),
				errors.Is(err, clickpesa.ErrValidation):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(handle))
	}
}

// @Summary      Get Payment Status
// @Description  Polls the gateway for the payment's current state, reconciles it and returns the merged view.
// @Tags         Payment
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object}  handlers.RespPaymentView
// @Router       /api/v1/payment/{id}/status [get]
func ApiGetPaymentStatus(coord payment.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := coord.GetPaymentStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, payment.ErrPaymentNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(view))
	}
}

// @Summary      Cancel Payment
// @Description  Abandons a payment that has not been handed to the gateway yet.
// @Tags         Payment
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/{id}/cancel [post]
func ApiCancelPayment(coord payment.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := coord.CancelPayment(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, payment.ErrPaymentNotFound) || errors.Is(err, payment.ErrCancelNotAllowed) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, coord payment.Coordinator) {
	r.POST("/start", ApiStartPayment(coord))
	r.GET("/:id/status", ApiGetPaymentStatus(coord))
	r.POST("/:id/cancel", ApiCancelPayment(coord))
}
