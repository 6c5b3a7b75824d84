package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/middleware"
)

// ledgerHandler handles HTTP requests for individual ledger entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerLedgerRoutes registers routes related to ledger entries.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:id", h.getTransaction)
	}
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Description Retrieves a single ledger entry belonging to the logged-in user
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.ledgerService.GetTransactionByID(c.Request.Context(), ownerID, transactionID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
