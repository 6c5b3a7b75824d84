package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/middleware"
)

// investmentHandler handles HTTP requests related to investment positions.
type investmentHandler struct {
	investmentService portssvc.InvestmentSvcFacade
}

// registerInvestmentRoutes registers routes related to investments.
func registerInvestmentRoutes(rg *gin.RouterGroup, investmentService portssvc.InvestmentSvcFacade) {
	h := &investmentHandler{investmentService: investmentService}

	investments := rg.Group("/investments")
	{
		investments.POST("", h.invest)
		investments.GET("", h.listInvestments)
		investments.GET("/:id", h.getInvestment)
		investments.POST("/:id/redemptions", h.redeem)
		investments.POST("/:id/cancellations", h.cancel)
		investments.PUT("/:id/return", h.recordReturn)
	}
}

// invest godoc
// @Summary Purchase an investment
// @Description Debits the funding account and opens the position atomically
// @Tags investments
// @Accept  json
// @Produce  json
// @Param   investment body dto.CreateInvestmentRequest true "Investment details"
// @Success 201 {object} dto.InvestmentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Funding account not found"
// @Failure 422 {object} map[string]string "Insufficient funds or account inactive"
// @Failure 500 {object} map[string]string "Failed to purchase investment"
// @Security BearerAuth
// @Router /investments [post]
func (h *investmentHandler) invest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Invest", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.investmentService.Invest(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to purchase investment")
		return
	}

	logger.Info("Investment purchased", slog.String("investment_id", inv.InvestmentID))
	c.JSON(http.StatusCreated, dto.ToInvestmentResponse(inv))
}

// listInvestments godoc
// @Summary List investments
// @Description Lists all of the logged-in user's positions
// @Tags investments
// @Produce  json
// @Success 200 {array} dto.InvestmentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list investments"
// @Security BearerAuth
// @Router /investments [get]
func (h *investmentHandler) listInvestments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	investments, err := h.investmentService.ListInvestments(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, logger, err, "Failed to list investments")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvestmentResponses(investments))
}

// getInvestment godoc
// @Summary Get an investment by ID
// @Description Retrieves one of the logged-in user's positions
// @Tags investments
// @Produce  json
// @Param   id path string true "Investment ID"
// @Success 200 {object} dto.InvestmentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Investment not found"
// @Failure 500 {object} map[string]string "Failed to retrieve investment"
// @Security BearerAuth
// @Router /investments/{id} [get]
func (h *investmentHandler) getInvestment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	investmentID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.investmentService.GetInvestmentByID(c.Request.Context(), ownerID, investmentID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve investment")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvestmentResponse(inv))
}

// redeem godoc
// @Summary Redeem an investment
// @Description Credits principal plus any recorded return back to the account and completes the position
// @Tags investments
// @Produce  json
// @Param   id path string true "Investment ID"
// @Success 200 {object} dto.InvestmentResponse
// @Failure 400 {object} map[string]string "Position is not active"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Investment not found"
// @Failure 500 {object} map[string]string "Failed to redeem investment"
// @Security BearerAuth
// @Router /investments/{id}/redemptions [post]
func (h *investmentHandler) redeem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	investmentID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.investmentService.Redeem(c.Request.Context(), ownerID, investmentID)
	if err != nil {
		respondError(c, logger, err, "Failed to redeem investment")
		return
	}

	logger.Info("Investment redeemed", slog.String("investment_id", investmentID))
	c.JSON(http.StatusOK, dto.ToInvestmentResponse(inv))
}

// cancel godoc
// @Summary Cancel an investment
// @Description Refunds the principal and marks the position cancelled
// @Tags investments
// @Produce  json
// @Param   id path string true "Investment ID"
// @Success 200 {object} dto.InvestmentResponse
// @Failure 400 {object} map[string]string "Position is not active"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Investment not found"
// @Failure 500 {object} map[string]string "Failed to cancel investment"
// @Security BearerAuth
// @Router /investments/{id}/cancellations [post]
func (h *investmentHandler) cancel(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	investmentID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.investmentService.Cancel(c.Request.Context(), ownerID, investmentID)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel investment")
		return
	}

	logger.Info("Investment cancelled", slog.String("investment_id", investmentID))
	c.JSON(http.StatusOK, dto.ToInvestmentResponse(inv))
}

// recordReturn godoc
// @Summary Record an investment return
// @Description Sets the realized return on an active position; the amount is credited on redemption
// @Tags investments
// @Accept  json
// @Produce  json
// @Param   id path string true "Investment ID"
// @Param   return body dto.RecordReturnRequest true "Return details"
// @Success 200 {object} dto.InvestmentResponse
// @Failure 400 {object} map[string]string "Invalid input or position not active"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Investment not found"
// @Failure 500 {object} map[string]string "Failed to record return"
// @Security BearerAuth
// @Router /investments/{id}/return [put]
func (h *investmentHandler) recordReturn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	investmentID := c.Param("id")

	var req dto.RecordReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordReturn", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.investmentService.RecordReturn(c.Request.Context(), ownerID, investmentID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to record return")
		return
	}

	logger.Info("Investment return recorded", slog.String("investment_id", investmentID))
	c.JSON(http.StatusOK, dto.ToInvestmentResponse(inv))
}
