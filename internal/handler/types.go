package handler

import (
	"time"

	"contacts-server/internal/models"
)

// --- Request structs ---

type signupRequest struct {
	Username string `json:"username" binding:"required,min=5,max=16"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=10"`
}

// loginRequest follows the OAuth2 password form: the username field carries
// the email address.
type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type resendEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type contactRequest struct {
	Name        string `json:"name" binding:"required,max=25"`
	LastName    string `json:"last_name" binding:"required,max=30"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"required,max=20"`
	Birthday    string `json:"birthday" binding:"required"`
}

// toContact parses the birthday and converts the request into a model.
func (r contactRequest) toContact() (*models.Contact, error) {
	birthday, err := time.Parse("2006-01-02", r.Birthday)
	if err != nil {
		return nil, err
	}
	return &models.Contact{
		Name:        r.Name,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Birthday:    birthday,
	}, nil
}

type listContactsQuery struct {
	Limit  int `form:"limit,default=10"`
	Offset int `form:"offset,default=0"`
}
