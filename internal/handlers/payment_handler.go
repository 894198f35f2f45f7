package handlers

import (
	"net/http"

	"pizzeria/internal/middleware"
	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req struct {
		OrderID uint `json:"orderId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.OrderID == 0 {
		respondError(c, services.ValidationErrors{"orderId": "Order is required"})
		return
	}

	session, err := h.paymentService.CreateCheckoutSession(c.Request.Context(), middleware.CurrentUserID(c), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"sessionId": session.ID, "url": session.URL})
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
		OrderID   uint   `json:"orderId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.SessionID == "" || req.OrderID == 0 {
		respondError(c, services.ValidationErrors{"sessionId": "Session and order are required"})
		return
	}

	order, err := h.paymentService.VerifyPayment(c.Request.Context(), middleware.CurrentUserID(c), req.SessionID, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment verified", order)
}
