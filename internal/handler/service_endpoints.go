package handler

import (
	"net/http"

	"contacts-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// healthChecker runs a diagnostic query against PostgreSQL. The query is
// overridable via the request_string parameter so operators can probe
// specific tables.
func (h *APIHandler) healthChecker(c *gin.Context) {
	query := c.DefaultQuery("request_string", "SELECT 1")

	rows, err := h.db.Query(c.Request.Context(), query)
	if err != nil {
		zap.L().Error("Health check query failed", zap.Error(err), zap.String("query", query))
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: h.cfg.HealthErrorMessage})
		return
	}
	defer rows.Close()

	if !rows.Next() {
		zap.L().Error("Health check query returned no rows", zap.String("query", query))
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: h.cfg.HealthErrorMessage})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: h.cfg.HealthOKMessage})
}

// listUsers is a development endpoint returning every registered account.
func (h *APIHandler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
