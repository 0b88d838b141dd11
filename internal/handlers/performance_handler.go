package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeflow/internal/services"
)

// PerformanceHandler serves portfolio valuations.
type PerformanceHandler struct {
	performanceService services.PerformanceServicer
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(performanceService services.PerformanceServicer) *PerformanceHandler {
	return &PerformanceHandler{performanceService: performanceService}
}

// GetPerformance values a portfolio against current market prices
// @Summary     Get portfolio performance
// @Description Aggregate holdings with weighted-average cost and value them at live quotes. Holdings without a quote are valued at cost.
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} performance.PortfolioReport "Performance report"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolios/{id}/performance [get]
func (h *PerformanceHandler) GetPerformance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.performanceService.GetPerformance(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
