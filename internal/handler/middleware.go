package handler

import (
	"strings"

	"contacts-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxEmailKey = "email"

// AuthMiddleware validates the bearer access token and stores the subject
// email in the request context.
func (h *APIHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			zap.L().Warn("Authorization header missing")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		email, err := h.tokens.ParseAccessToken(parts[1])
		if err != nil {
			zap.L().Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("access", "success").Inc()
		c.Set(ctxEmailKey, email)
		c.Next()
	}
}

// currentEmail returns the email placed in the context by AuthMiddleware.
func currentEmail(c *gin.Context) string {
	return c.GetString(ctxEmailKey)
}
