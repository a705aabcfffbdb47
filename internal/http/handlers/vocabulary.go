package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"iamercado/internal/repo"
	"iamercado/pkg/models"
)

// VocabularyHandler manages the regional vocabulary overrides used by the
// attendant's normalizer
type VocabularyHandler struct {
	vocabRepo *repo.VocabularyRepository
	reload    func() // rebuilds the attendant's normalizer
}

func NewVocabularyHandler(vocabRepo *repo.VocabularyRepository, reload func()) *VocabularyHandler {
	return &VocabularyHandler{vocabRepo: vocabRepo, reload: reload}
}

// List returns all vocabulary entries
// @Summary List vocabulary entries
// @Tags vocabulary
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.VocabularyEntry
// @Router /vocabulary [get]
func (h *VocabularyHandler) List(c echo.Context) error {
	entries, err := h.vocabRepo.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list vocabulary")
	}
	return c.JSON(http.StatusOK, entries)
}

// Upsert creates or updates a regional term mapping
// @Summary Upsert vocabulary entry
// @Tags vocabulary
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.VocabularyEntry true "Entry"
// @Success 200 {object} models.VocabularyEntry
// @Router /vocabulary [put]
func (h *VocabularyHandler) Upsert(c echo.Context) error {
	var entry models.VocabularyEntry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.vocabRepo.Upsert(&entry); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save entry")
	}
	if h.reload != nil {
		h.reload()
	}
	return c.JSON(http.StatusOK, entry)
}

// Delete removes a regional term mapping
// @Summary Delete vocabulary entry
// @Tags vocabulary
// @Security BearerAuth
// @Param regional path string true "Regional term"
// @Success 204
// @Router /vocabulary/{regional} [delete]
func (h *VocabularyHandler) Delete(c echo.Context) error {
	regional := c.Param("regional")
	if regional == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing regional term")
	}

	if err := h.vocabRepo.Delete(regional); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete entry")
	}
	if h.reload != nil {
		h.reload()
	}
	return c.NoContent(http.StatusNoContent)
}
