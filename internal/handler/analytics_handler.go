package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notcelab/notce-backend/internal/middleware"
	"github.com/notcelab/notce-backend/internal/response"
	"github.com/notcelab/notce-backend/internal/service"
)

// AnalyticsHandler serves the domain-weighted performance read model.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetDomainStats godoc
// GET /api/v1/analytics/domains
// Returns per-domain accuracy in blueprint order, all six domains always
// present.
func (h *AnalyticsHandler) GetDomainStats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.analyticsService.DomainStats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"domains": stats})
}
