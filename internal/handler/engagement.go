package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/protocol"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/scheduler"
)

type EngagementHandler interface {
	RunTrigger(c *gin.Context)
	AdvanceDays(c *gin.Context)
}

type engagementHandler struct {
	runner  *scheduler.Runner
	machine *protocol.Machine
	logger  *zap.Logger
}

func NewEngagementHandler(runner *scheduler.Runner, machine *protocol.Machine, logger *zap.Logger) EngagementHandler {
	return &engagementHandler{runner: runner, machine: machine, logger: logger}
}

// RunRequest is the engagement invocation payload sent by the external
// scheduler. user_id restricts scope to one user for targeted re-runs.
type RunRequest struct {
	TriggerType string `json:"trigger_type" binding:"required"`
	Source      string `json:"source"`
	UserID      string `json:"user_id"`
}

// RunTrigger handles POST /api/engagement/run. Malformed input is the
// only thing that fails the whole invocation; everything downstream
// degrades into the summary's error list.
func (h *engagementHandler) RunTrigger(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trigger_type is required"})
		return
	}

	trigger, ok := models.ParseTriggerType(req.TriggerType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trigger_type: " + req.TriggerType})
		return
	}

	h.logger.Info("Engagement invocation received",
		zap.String("trigger", req.TriggerType),
		zap.String("source", req.Source),
		zap.String("user_id", req.UserID))

	summary, err := h.runner.Run(c.Request.Context(), trigger, req.UserID)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownTrigger) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Engagement run failed", zap.String("trigger", req.TriggerType), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run engagement trigger"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AdvanceDays handles POST /api/protocols/advance-day: the parameterless
// daily batch that moves every active protocol forward.
func (h *engagementHandler) AdvanceDays(c *gin.Context) {
	result, err := h.machine.AdvanceAllActive(time.Now().UTC())
	if err != nil {
		h.logger.Error("Day advancement batch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance protocol days"})
		return
	}

	c.JSON(http.StatusOK, result)
}
