package handlers

import (
	"net/http"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/repository"
	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type PromoHandler struct {
	promoService services.PromoService
}

func NewPromoHandler(promoService services.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

// ValidatePromo previews a code against the cart subtotal. The discount is
// computed again when the order is placed.
func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	var req struct {
		Code        string  `json:"code"`
		OrderAmount float64 `json:"orderAmount"`
	}
	if !bindJSON(c, &req) {
		return
	}
	discount, err := h.promoService.ValidatePromo(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Promo code applied", discount)
}

func (h *PromoHandler) ListPromos(c *gin.Context) {
	filter := repository.PromoFilter{
		Active:       queryBool(c, "active"),
		DiscountType: c.Query("discountType"),
	}
	promos, err := h.promoService.ListPromos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", promos)
}

func (h *PromoHandler) GetPromo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	promo, err := h.promoService.GetPromo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", promo)
}

func (h *PromoHandler) CreatePromo(c *gin.Context) {
	var promo models.Promo
	if !bindJSON(c, &promo) {
		return
	}
	if err := h.promoService.CreatePromo(c.Request.Context(), &promo, middleware.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Promo created", promo)
}

func (h *PromoHandler) UpdatePromo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var changes models.Promo
	if !bindJSON(c, &changes) {
		return
	}
	promo, err := h.promoService.UpdatePromo(c.Request.Context(), id, &changes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Promo updated", promo)
}

func (h *PromoHandler) DeletePromo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.promoService.DeletePromo(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Promo deleted", nil)
}
