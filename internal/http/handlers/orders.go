package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"iamercado/internal/repo"
)

// OrderHandler exposes the staff view of submitted orders
type OrderHandler struct {
	orderRepo *repo.OrderRepository
}

func NewOrderHandler(orderRepo *repo.OrderRepository) *OrderHandler {
	return &OrderHandler{orderRepo: orderRepo}
}

// List returns submitted orders, newest first
// @Summary List orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} models.PaginationResult[models.Order]
// @Router /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	result, err := h.orderRepo.List(page, perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list orders")
	}
	return c.JSON(http.StatusOK, result)
}

// GetByID returns one order with its items
// @Summary Get order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.orderRepo.GetByID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Order not found")
	}
	return c.JSON(http.StatusOK, order)
}
