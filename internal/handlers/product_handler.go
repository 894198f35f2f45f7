package handlers

import (
	"net/http"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/repository"
	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) ListPublished(c *gin.Context) {
	products, err := h.productService.ListPublished(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", products)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Category:  c.Query("category"),
		Published: queryBool(c, "published"),
		Search:    c.Query("search"),
	}
	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", products)
}

// GetProduct is public; drafts are only visible to admins.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if !bindJSON(c, &product) {
		return
	}
	if err := h.productService.CreateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var changes models.Product
	if !bindJSON(c, &changes) {
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &changes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted", nil)
}
