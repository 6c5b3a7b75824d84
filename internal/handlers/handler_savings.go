package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/dto"
	"github.com/pesavault/pesavault/internal/middleware"
)

// savingsHandler handles HTTP requests related to savings goals.
type savingsHandler struct {
	savingsService portssvc.SavingsSvcFacade
}

// registerSavingsRoutes registers routes related to savings goals.
func registerSavingsRoutes(rg *gin.RouterGroup, savingsService portssvc.SavingsSvcFacade) {
	h := &savingsHandler{savingsService: savingsService}

	goals := rg.Group("/goals")
	{
		goals.POST("", h.createGoal)
		goals.GET("", h.listGoals)
		goals.GET("/:id", h.getGoal)
		goals.POST("/:id/contributions", h.contribute)
		goals.DELETE("/:id", h.deleteGoal)
	}
}

// createGoal godoc
// @Summary Create a savings goal
// @Description Creates an unfunded goal tied to one of the user's accounts
// @Tags goals
// @Accept  json
// @Produce  json
// @Param   goal body dto.CreateGoalRequest true "Goal details"
// @Success 201 {object} dto.GoalResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Funding account not found"
// @Failure 500 {object} map[string]string "Failed to create goal"
// @Security BearerAuth
// @Router /goals [post]
func (h *savingsHandler) createGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateGoal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goal, err := h.savingsService.CreateGoal(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create goal")
		return
	}

	logger.Info("Goal created", slog.String("goal_id", goal.GoalID))
	c.JSON(http.StatusCreated, dto.ToGoalResponse(goal))
}

// listGoals godoc
// @Summary List savings goals
// @Description Lists all of the logged-in user's goals
// @Tags goals
// @Produce  json
// @Success 200 {array} dto.GoalResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list goals"
// @Security BearerAuth
// @Router /goals [get]
func (h *savingsHandler) listGoals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goals, err := h.savingsService.ListGoals(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, logger, err, "Failed to list goals")
		return
	}

	c.JSON(http.StatusOK, dto.ToGoalResponses(goals))
}

// getGoal godoc
// @Summary Get a savings goal by ID
// @Description Retrieves one of the logged-in user's goals
// @Tags goals
// @Produce  json
// @Param   id path string true "Goal ID"
// @Success 200 {object} dto.GoalResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Goal not found"
// @Failure 500 {object} map[string]string "Failed to retrieve goal"
// @Security BearerAuth
// @Router /goals/{id} [get]
func (h *savingsHandler) getGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	goalID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goal, err := h.savingsService.GetGoalByID(c.Request.Context(), ownerID, goalID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve goal")
		return
	}

	c.JSON(http.StatusOK, dto.ToGoalResponse(goal))
}

// contribute godoc
// @Summary Contribute to a savings goal
// @Description Moves money from the funding account into the goal atomically
// @Tags goals
// @Accept  json
// @Produce  json
// @Param   id path string true "Goal ID"
// @Param   contribution body dto.ContributeRequest true "Contribution details"
// @Success 200 {object} dto.GoalResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Goal not found"
// @Failure 422 {object} map[string]string "Insufficient funds or account inactive"
// @Failure 500 {object} map[string]string "Failed to contribute"
// @Security BearerAuth
// @Router /goals/{id}/contributions [post]
func (h *savingsHandler) contribute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	goalID := c.Param("id")

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Contribute", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	goal, err := h.savingsService.Contribute(c.Request.Context(), ownerID, goalID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to contribute")
		return
	}

	logger.Info("Contribution applied",
		slog.String("goal_id", goalID),
		slog.String("status", string(goal.Status)))
	c.JSON(http.StatusOK, dto.ToGoalResponse(goal))
}

// deleteGoal godoc
// @Summary Delete a savings goal
// @Description Refunds the funded amount to the owning account and removes the goal
// @Tags goals
// @Produce  json
// @Param   id path string true "Goal ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Goal not found"
// @Failure 500 {object} map[string]string "Failed to delete goal"
// @Security BearerAuth
// @Router /goals/{id} [delete]
func (h *savingsHandler) deleteGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	goalID := c.Param("id")

	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.savingsService.DeleteGoal(c.Request.Context(), ownerID, goalID); err != nil {
		respondError(c, logger, err, "Failed to delete goal")
		return
	}

	logger.Info("Goal deleted", slog.String("goal_id", goalID))
	c.Status(http.StatusNoContent)
}
