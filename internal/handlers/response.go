package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pizzeria/internal/models"
	"pizzeria/internal/pricing"
	"pizzeria/internal/services"
	"pizzeria/pkg/payment"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API answer is wrapped in.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrAccountDisabled, http.StatusForbidden},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrProductNotFound, http.StatusNotFound},
	{services.ErrCartItemNotFound, http.StatusNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound},
	{services.ErrPromoNotFound, http.StatusNotFound},
	{services.ErrUnknownSetting, http.StatusNotFound},
	{services.ErrEmailTaken, http.StatusConflict},
	{services.ErrPromoCodeTaken, http.StatusConflict},
	{services.ErrOrderChanged, http.StatusConflict},
	{services.ErrRefundTransition, http.StatusConflict},
	{services.ErrAlreadyPaid, http.StatusConflict},
	{services.ErrOrderCancelled, http.StatusConflict},
	{services.ErrProductUnavailable, http.StatusBadRequest},
	{services.ErrEmptyCart, http.StatusBadRequest},
	{services.ErrPaymentNotRequired, http.StatusBadRequest},
	{services.ErrPaymentNotComplete, http.StatusPaymentRequired},
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// a 500 and its detail only goes to the request log.
func respondError(c *gin.Context, err error) {
	var validation services.ValidationErrors
	if errors.As(err, &validation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Message: "Validation failed", Errors: validation})
		return
	}

	var rejection *pricing.PromoRejection
	if errors.As(err, &rejection) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{Success: false, Message: rejection.Message, Reason: string(rejection.Reason)})
		return
	}

	var transition *models.TransitionError
	if errors.As(err, &transition) {
		fail(c, http.StatusConflict, transition.Message)
		return
	}

	for _, known := range errorStatus {
		if errors.Is(err, known.err) {
			fail(c, known.status, sentence(known.err.Error()))
			return
		}
	}

	c.Error(err)
	var gatewayErr *payment.APIError
	if errors.As(err, &gatewayErr) {
		fail(c, http.StatusBadGateway, "Payment provider is unavailable, please try again")
		return
	}
	fail(c, http.StatusInternalServerError, "Internal server error")
}

func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
