package handler

import (
	"fmt"
	"net/http"

	"contacts-server/internal/models"

	"github.com/gin-gonic/gin"
)

// requestBaseURL reconstructs the externally visible base URL so links in
// verification letters point back at this deployment.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

func (h *APIHandler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password, requestBaseURL(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	signupsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

func (h *APIHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	loginsTotal.Inc()
	c.JSON(http.StatusOK, tokens)
}

// refreshToken rotates the pair. The token is taken from the input_refresh
// query parameter when present, otherwise from the bearer header.
func (h *APIHandler) refreshToken(c *gin.Context) {
	token := c.Query("input_refresh")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		handleServiceError(c, models.ErrTokenInvalid)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, err)
		return
	}

	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()
	refreshesTotal.Inc()
	c.JSON(http.StatusOK, tokens)
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):]
	}
	return ""
}

const confirmationPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Email confirmed</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding-top: 64px;">
  <h1>%s</h1>
  <p>You can close this page and log in.</p>
</body>
</html>`

func (h *APIHandler) confirmEmail(c *gin.Context) {
	alreadyConfirmed, err := h.auth.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Email confirmed"
	if alreadyConfirmed {
		message = "Your email is already confirmed"
	} else {
		emailConfirmationsTotal.Inc()
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(confirmationPage, message)))
}

func (h *APIHandler) resendEmail(c *gin.Context) {
	var req resendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}

	alreadyConfirmed, err := h.auth.ResendVerification(c.Request.Context(), req.Email, requestBaseURL(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Check your email for confirmation."
	if alreadyConfirmed {
		message = "Your email is already confirmed"
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: message})
}

// trackOpen records the letter open and always serves the pixel, whatever
// the email was.
func (h *APIHandler) trackOpen(c *gin.Context) {
	h.auth.TrackOpen(c.Request.Context(), c.Param("email"))
	c.Data(http.StatusOK, "image/png", trackingPixel)
}
