package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"contacts-server/internal/models"

	"github.com/gin-gonic/gin"
)

// currentUserID resolves the authenticated user's id from the email stored
// by AuthMiddleware.
func (h *APIHandler) currentUserID(c *gin.Context) (*models.User, bool) {
	user, err := h.auth.CurrentUser(c.Request.Context(), currentEmail(c))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return user, true
}

func contactIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Contact id must be an integer"})
		return 0, false
	}
	return id, true
}

func (h *APIHandler) listContacts(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query listContactsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid pagination parameters: " + err.Error()})
		return
	}

	contacts, err := h.contacts.List(c.Request.Context(), user.ID, query.Limit, query.Offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *APIHandler) getContact(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := contactIDParam(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *APIHandler) createContact(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}
	contact, err := req.toContact()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Birthday must be a date in YYYY-MM-DD format"})
		return
	}

	created, err := h.contacts.Create(c.Request.Context(), user.ID, contact)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) updateContact(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := contactIDParam(c)
	if !ok {
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()})
		return
	}
	contact, err := req.toContact()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Birthday must be a date in YYYY-MM-DD format"})
		return
	}

	updated, err := h.contacts.Update(c.Request.Context(), user.ID, id, contact)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *APIHandler) deleteContact(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := contactIDParam(c)
	if !ok {
		return
	}

	removed, err := h.contacts.Delete(c.Request.Context(), user.ID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("%s %s has been deleted", removed.Name, removed.LastName),
	})
}

func (h *APIHandler) searchContacts(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}

	query := c.Param("query")
	if len(query) < 2 || len(query) > 20 {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Search query length must be between 2 and 20 characters"})
		return
	}

	contacts, err := h.contacts.Search(c.Request.Context(), user.ID, query)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *APIHandler) upcomingBirthdays(c *gin.Context) {
	user, ok := h.currentUserID(c)
	if !ok {
		return
	}

	contacts, err := h.contacts.UpcomingBirthdays(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}
