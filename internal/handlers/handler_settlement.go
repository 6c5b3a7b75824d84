package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/middleware"
)

// settlementHandler handles HTTP requests related to external settlements.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

// registerSettlementRoutes registers the authenticated settlement routes.
func registerSettlementRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := &settlementHandler{settlementService: settlementService}

	settlements := rg.Group("/settlements")
	{
		settlements.POST("", h.initiate)
		settlements.GET("/:id", h.getSettlement)
	}
}

// registerSettlementCallbackRoute registers the unauthenticated callback
// endpoint the gateway posts results to.
func registerSettlementCallbackRoute(r *gin.Engine, settlementService portssvc.SettlementSvcFacade) {
	h := &settlementHandler{settlementService: settlementService}
	r.POST("/api/v1/settlements/callback", h.callback)
}

// initiate godoc
// @Summary Initiate an external settlement
// @Description Starts a mobile-money collection that credits the account once the provider confirms it. The settlement is persisted before the provider is called, so the response may still be pending.
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   settlement body dto.InitiateSettlementRequest true "Settlement details"
// @Success 201 {object} dto.SettlementResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Account inactive"
// @Failure 500 {object} map[string]string "Failed to initiate settlement"
// @Security BearerAuth
// @Router /settlements [post]
func (h *settlementHandler) initiate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.InitiateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for InitiateSettlement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, ref, err := h.settlementService.Initiate(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to initiate settlement")
		return
	}

	logger.Info("Settlement initiated",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("state", string(ref.State)))
	c.JSON(http.StatusCreated, dto.ToSettlementResponse(txn, ref))
}

// getSettlement godoc
// @Summary Get a settlement by transaction ID
// @Description Retrieves an external settlement and its reconciliation state
// @Tags settlements
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.SettlementResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Settlement not found"
// @Failure 500 {object} map[string]string "Failed to retrieve settlement"
// @Security BearerAuth
// @Router /settlements/{id} [get]
func (h *settlementHandler) getSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, ref, err := h.settlementService.GetSettlement(c.Request.Context(), ownerID, transactionID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve settlement")
		return
	}

	c.JSON(http.StatusOK, dto.ToSettlementResponse(txn, ref))
}

// callback godoc
// @Summary Settlement result callback
// @Description Receives the gateway's resolution for a settlement. Duplicate deliveries are acknowledged without effect.
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   callback body dto.SettlementCallbackRequest true "Callback payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 404 {object} map[string]string "Unknown settlement reference"
// @Failure 500 {object} map[string]string "Failed to process callback"
// @Router /settlements/callback [post]
func (h *settlementHandler) callback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SettlementCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for settlement callback", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("external_reference_id", req.ExternalReferenceID))

	if err := h.settlementService.HandleCallback(c.Request.Context(), req); err != nil {
		respondError(c, logger, err, "Failed to process callback")
		return
	}

	logger.Info("Settlement callback processed", slog.String("status", req.Status))
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
