package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
)

// Middleware resolves the session user for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// LoadUser resolves the session user, if any, into the Gin context. It never
// rejects a request; pair it with RequireAuth on protected routes.
func (m *Middleware) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := m.sessionUser(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated session user.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) sessionUser(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	// Look the user up so a deleted account invalidates its sessions
	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns 0 when no user is authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetUsername extracts the authenticated user's name from the Gin context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}
