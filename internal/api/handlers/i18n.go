package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
	"github.com/unifiedui/handoff-service/internal/services/translation"
)

// I18nHandler serves UI dictionaries.
type I18nHandler struct {
	translations translation.Service
}

// NewI18nHandler creates a new I18nHandler.
func NewI18nHandler(translations translation.Service) *I18nHandler {
	return &I18nHandler{
		translations: translations,
	}
}

// GetDictionary handles GET /i18n/{lang}
// @Summary Get a UI dictionary
// @Description Returns the widget strings for a language, falling back to the default language
// @Tags I18n
// @Produce json
// @Param lang path string true "Language code"
// @Success 200 {object} dto.DictionaryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/i18n/{lang} [get]
func (h *I18nHandler) GetDictionary(c *gin.Context) {
	lang := c.Param("lang")
	entries, err := h.translations.GetDictionary(c.Request.Context(), lang)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, dto.DictionaryResponse{
		Language: lang,
		Entries:  entries,
	})
}
