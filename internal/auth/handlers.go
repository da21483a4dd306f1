package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/entities"
)

// Recorder receives audit events for auth activity. Optional; a nil recorder
// disables auditing.
type Recorder interface {
	LogEvent(event *entities.AuditEvent) error
}

// Controller handles authentication HTTP endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	auditor        Recorder
}

// NewController creates a new authentication controller.
func NewController(service *Service, sessionManager *SessionManager, auditor Recorder) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		auditor:        auditor,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/auth/register", ac.Register)
	router.POST("/api/auth/login", ac.Login)
	router.POST("/api/auth/logout", ac.Logout)
	router.GET("/api/auth/session", ac.Session)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account and signs the user in.
// POST /api/auth/register
func (ac *Controller) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Register(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists),
			errors.Is(err, ErrUsernameInvalid),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Registration failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session after registration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	ac.audit(user.ID, entities.AuditActionRegister, "user registered")

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

// Login authenticates and starts a session.
// POST /api/auth/login
func (ac *Controller) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Authenticate(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Printf("Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

// Logout destroys the current session.
// POST /api/auth/logout
func (ac *Controller) Logout(c *gin.Context) {
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		log.Printf("Failed to destroy session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Session reports the current session user plus a CSRF token for
// state-changing requests.
// GET /api/auth/session
func (ac *Controller) Session(c *gin.Context) {
	resp := gin.H{"csrf_token": GetCSRFToken(c)}
	if userID := ac.sessionManager.GetUserID(c.Request); userID != 0 {
		resp["id"] = userID
		resp["username"] = ac.sessionManager.GetUsername(c.Request)
	}
	c.JSON(http.StatusOK, resp)
}

func (ac *Controller) audit(userID uint, action entities.AuditAction, description string) {
	if ac.auditor == nil {
		return
	}
	err := ac.auditor.LogEvent(&entities.AuditEvent{
		UserID:      userID,
		Action:      action,
		EntityType:  "user",
		Description: description,
	})
	if err != nil {
		log.Printf("Failed to record audit event: %v", err)
	}
}
