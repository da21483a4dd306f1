package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/auth"
)

// RouterConfig carries all dependencies needed to build the HTTP router.
type RouterConfig struct {
	Health      Pinger
	Books       BookStore
	Lists       ListStore
	Leaderboard LeaderboardStore
	Auditor     AuditRecorder

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.LoadUser())
	}

	health := NewHealthController(cfg.Health, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Auditor)
	listsController := NewListsController(cfg.Lists, cfg.Auditor)
	leaderboardController := NewLeaderboardController(cfg.Leaderboard)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Auth endpoints
	if cfg.AuthService != nil && cfg.SessionManager != nil {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.Auditor)
		authController.RegisterRoutes(router)
	}

	// Public reads: the pool and the leaderboard are visible without a session
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/summary", leaderboardController.Summary)

	// Everything that mutates requires a session
	protected := router.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	protected.POST("/api/books", booksController.CreateBook)
	protected.PUT("/api/books/:id", booksController.FixBook)

	protected.GET("/api/me/list", listsController.GetList)
	protected.POST("/api/me/list", listsController.AddToList)
	protected.POST("/api/me/list/new", listsController.AddNewBook)
	protected.POST("/api/me/list/reorder", listsController.Reorder)
	protected.POST("/api/me/list/:id/up", listsController.MoveUp)
	protected.POST("/api/me/list/:id/down", listsController.MoveDown)
	protected.DELETE("/api/me/list/:id", listsController.RemoveEntry)

	return router
}
