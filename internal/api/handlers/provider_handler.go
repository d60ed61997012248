package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foundrybay/core/internal/services"
)

// ProviderHandler handles REST requests for supplier profiles.
type ProviderHandler struct {
	providerService services.IProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providerService services.IProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

// GetProvider handles GET /v1/provider/:id.
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	provider, err := h.providerService.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRaceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": provider})
}
