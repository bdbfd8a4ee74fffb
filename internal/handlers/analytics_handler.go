package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"framex/internal/services"
)

// AnalyticsHandler serves the dashboard summary and the bootstrap payload.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Summary returns payment totals by category and month
// @Summary     Analytics summary
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Summary
// @Failure     403 {object} ErrorResponse "Admin only"
// @Router      /analytics [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.Summary(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Bootstrap returns everything the client loads on start
// @Summary     Initial data load
// @Description Users (admins only get the full list), visible entries, company and master data.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Bootstrap
// @Router      /bootstrap [get]
func (h *AnalyticsHandler) Bootstrap(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	boot, err := h.analyticsService.Bootstrap(c.Request.Context(), user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, boot)
}
