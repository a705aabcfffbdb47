package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"iamercado/internal/repo"
	"iamercado/internal/services"
	"iamercado/pkg/models"
)

// ProductHandler manages the product catalog that backs the EAN knowledge
// base
type ProductHandler struct {
	productRepo *repo.ProductRepository
	embedding   *services.EmbeddingService // nil when the vector store is not configured
}

func NewProductHandler(productRepo *repo.ProductRepository, embedding *services.EmbeddingService) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, embedding: embedding}
}

// Search lists catalog products matching a query
// @Summary Search products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Product
// @Router /products [get]
func (h *ProductHandler) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	products, err := h.productRepo.Search(c.QueryParam("q"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to search products")
	}
	return c.JSON(http.StatusOK, products)
}

// Upsert creates or updates a catalog product by EAN
// @Summary Upsert product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Product true "Product"
// @Success 200 {object} models.Product
// @Router /products [put]
func (h *ProductHandler) Upsert(c echo.Context) error {
	var product models.Product
	if err := c.Bind(&product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&product); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.productRepo.Upsert(&product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save product")
	}
	return c.JSON(http.StatusOK, product)
}

// Sync re-embeds changed products into the vector knowledge base
// @Summary Sync products to the knowledge base
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /products/sync [post]
func (h *ProductHandler) Sync(c echo.Context) error {
	if h.embedding == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Vector store not configured")
	}

	count, err := h.embedding.SyncProducts(c.Request().Context(), h.productRepo)
	if err != nil {
		log.Error().Err(err).Msg("product sync failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Sync failed")
	}
	return c.JSON(http.StatusOK, map[string]int{"synced": count})
}
