package handler

import (
	"net/http"

	"contacts-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *APIHandler) me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), currentEmail(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateAvatar accepts a multipart "file" field, uploads it to the image
// host and returns the user with the new avatar URL.
func (h *APIHandler) updateAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Multipart field 'file' is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Could not read uploaded file"})
		return
	}
	defer file.Close()

	user, err := h.auth.UpdateAvatar(c.Request.Context(), currentEmail(c), file)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
