package handler

import (
	"net/http"

	"contacts-server/internal/config"
	"contacts-server/internal/interfaces"
	"contacts-server/internal/service"

	"github.com/gin-gonic/gin"
)

// APIHandler wires the HTTP surface to the services.
type APIHandler struct {
	auth     service.AuthService
	contacts service.ContactService
	tokens   service.TokenService
	users    interfaces.UserRepository
	db       interfaces.DBTX
	cfg      *config.Config
}

func NewAPIHandler(
	auth service.AuthService,
	contacts service.ContactService,
	tokens service.TokenService,
	users interfaces.UserRepository,
	db interfaces.DBTX,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		auth:     auth,
		contacts: contacts,
		tokens:   tokens,
		users:    users,
		db:       db,
		cfg:      cfg,
	}
}

// RegisterRoutes mounts every endpoint. rateLimiter throttles the
// authenticated groups; pass nil to disable (tests).
func (h *APIHandler) RegisterRoutes(router *gin.Engine, rateLimiter gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
		authGroup.GET("/refresh_token", h.refreshToken)
		authGroup.GET("/confirmed_email/:token", h.confirmEmail)
		authGroup.POST("/resent_email", h.resendEmail)
		authGroup.GET("/check/:email", h.trackOpen)
	}

	protected := []gin.HandlerFunc{h.AuthMiddleware()}
	if rateLimiter != nil {
		protected = append(protected, rateLimiter)
	}

	contactsGroup := router.Group("/contacts", protected...)
	{
		contactsGroup.GET("", h.listContacts)
		contactsGroup.POST("", h.createContact)
		contactsGroup.GET("/birthdate/", h.upcomingBirthdays)
		contactsGroup.GET("/search/:query", h.searchContacts)
		contactsGroup.GET("/:id", h.getContact)
		contactsGroup.PUT("/:id", h.updateContact)
		contactsGroup.DELETE("/:id", h.deleteContact)
	}

	usersGroup := router.Group("/users", protected...)
	{
		usersGroup.GET("/me", h.me)
		usersGroup.PATCH("/avatar", h.updateAvatar)
	}

	serviceGroup := router.Group("/api_service")
	{
		serviceGroup.GET("/health_checker", h.healthChecker)
	}

	devGroup := router.Group("/custom_tasks")
	{
		devGroup.GET("/get_users", h.listUsers)
	}
}
