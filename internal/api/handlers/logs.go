package handlers

import (
	"errors"
	"io"
	"log/slog"

	"trolley-tracker/internal/api/middleware"
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	auditService *services.AuditService
	logger       *slog.Logger
}

func NewLogsHandler(auditService *services.AuditService, logger *slog.Logger) *LogsHandler {
	return &LogsHandler{
		auditService: auditService,
		logger:       logger,
	}
}

type LogActionRequest struct {
	Action  string         `json:"action"`
	Details map[string]any `json:"details"`
}

// LogAction records an action reported by the caller
func (h *LogsHandler) LogAction(c *gin.Context) {
	var req LogActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	var employeeID string
	if claims, ok := middleware.GetClaims(c); ok {
		employeeID = claims.UserID
	}

	if _, err := h.auditService.Append(c.Request.Context(), employeeID, req.Action, c.Request.Method, req.Details); err != nil {
		if errors.Is(err, services.ErrNoSubject) {
			respondError(c, err)
			return
		}
		h.logger.Error("failed to log employee action", "employee_id", employeeID, "error", err)
		c.JSON(500, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// GetLogs returns audit entries, optionally for one day
func (h *LogsHandler) GetLogs(c *gin.Context) {
	logs, err := h.auditService.QueryByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			respondError(c, err)
			return
		}
		h.logger.Error("failed to fetch user logs", "error", err)
		c.JSON(500, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(200, gin.H{"userLogs": logs})
}

// DeleteLogs removes the entries of one day
func (h *LogsHandler) DeleteLogs(c *gin.Context) {
	deleted, err := h.auditService.DeleteByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			respondError(c, err)
			return
		}
		h.logger.Error("failed to delete logs by date", "date", c.Param("date"), "error", err)
		c.JSON(500, gin.H{"error": "Internal Server Error"})
		return
	}

	h.logger.Info("deleted user logs", "date", c.Param("date"), "count", deleted)
	c.Status(204)
}
