package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"iamercado/internal/session"
)

// SessionHandler exposes the in-flight order sessions to the staff panel
type SessionHandler struct {
	tracker *session.Tracker
}

func NewSessionHandler(tracker *session.Tracker) *SessionHandler {
	return &SessionHandler{tracker: tracker}
}

// GetByPhone returns the current session of a customer
// @Summary Get order session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Customer phone (digits)"
// @Success 200 {object} models.OrderSession
// @Failure 404 {object} map[string]string
// @Router /sessions/{phone} [get]
func (h *SessionHandler) GetByPhone(c echo.Context) error {
	phone := session.SanitizePhone(c.Param("phone"))
	if phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid phone")
	}

	s := h.tracker.Get(phone)
	if s == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No active session")
	}
	return c.JSON(http.StatusOK, s)
}

// Status returns only the session status for a customer
// @Summary Get session status
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Customer phone (digits)"
// @Success 200 {object} map[string]string
// @Router /sessions/{phone}/status [get]
func (h *SessionHandler) Status(c echo.Context) error {
	phone := session.SanitizePhone(c.Param("phone"))
	if phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid phone")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"phone":  phone,
		"status": h.tracker.Status(phone),
	})
}

// Clear drops a customer's session, used by staff to unblock a stuck order
// @Summary Clear order session
// @Tags sessions
// @Security BearerAuth
// @Param phone path string true "Customer phone (digits)"
// @Success 204
// @Router /sessions/{phone} [delete]
func (h *SessionHandler) Clear(c echo.Context) error {
	phone := session.SanitizePhone(c.Param("phone"))
	if phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid phone")
	}
	h.tracker.Clear(phone)
	return c.NoContent(http.StatusNoContent)
}
