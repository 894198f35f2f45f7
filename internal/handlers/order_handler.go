package handlers

import (
	"net/http"
	"strconv"

	"pizzeria/internal/middleware"
	"pizzeria/internal/repository"
	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.PlaceOrder(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", order)
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.orderService.GetOrdersByUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.CurrentUserID(c), middleware.IsAdmin(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order cancelled", order)
}

// Admin endpoints

func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := repository.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
		PaymentMode:   c.Query("paymentMode"),
	}
	orders, err := h.orderService.GetAllOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", orders)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated", order)
}

func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment status updated", order)
}

func (h *OrderHandler) UpdateRefundStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		RefundStatus string `json:"refundStatus"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdateRefundStatus(c.Request.Context(), id, req.RefundStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Refund status updated", order)
}

func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orderService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

func (h *OrderHandler) Sales(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	sales, err := h.orderService.Sales(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", sales)
}

func (h *OrderHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.orderService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", dashboard)
}
