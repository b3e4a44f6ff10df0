package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"mangareader/internal/core"
	"mangareader/internal/media"
	"mangareader/pkg/config"
)

// Services groups the core services the HTTP API is built on
type Services struct {
	Auth      core.AuthService
	Manga     core.MangaService
	Chapters  core.ChapterService
	Paywall   core.PaywallService
	Recommend core.RecommendService
	Library   core.LibraryService
	Wallet    core.WalletService
	Popular   core.PopularService
	Uploader  media.Uploader
}

// Server manages the HTTP REST API
type Server struct {
	router        *gin.Engine
	config        *config.Config
	svc           Services
	authLimiter   *keyedLimiter
	unlockLimiter *keyedLimiter
}

// NewServer creates a new HTTP server with all handlers
func NewServer(cfg *config.Config, svc Services) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	authPerMinute := cfg.RateLimit.AuthPerMinute
	if authPerMinute <= 0 {
		authPerMinute = 5
	}
	unlockPerSecond := cfg.RateLimit.UnlockPerSecond
	if unlockPerSecond <= 0 {
		unlockPerSecond = 10
	}

	s := &Server{
		router:        router,
		config:        cfg,
		svc:           svc,
		authLimiter:   newKeyedLimiter(rate.Every(time.Minute/time.Duration(authPerMinute)), authPerMinute),
		unlockLimiter: newKeyedLimiter(rate.Limit(unlockPerSecond), unlockPerSecond),
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := AuthMiddleware(s.svc.Auth)
	optionalAuth := OptionalAuthMiddleware(s.svc.Auth)

	v1 := s.router.Group("/api/v1", ValidIDParams())
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", RateLimit(s.authLimiter, clientIPKey), s.register)
			auth.POST("/login", RateLimit(s.authLimiter, clientIPKey), s.login)
			auth.POST("/logout", requireAuth, s.logout)
		}

		// Catalog (public)
		v1.GET("/manga", s.listManga)
		v1.GET("/manga/search", s.searchManga)
		v1.GET("/manga/popular", s.getPopular)
		v1.GET("/manga/:id", s.getManga)
		v1.GET("/manga/:id/related", s.getRelated)
		v1.GET("/manga/:id/chapters", s.listChapters)
		v1.POST("/manga/:id/like", s.likeManga)
		v1.GET("/categories", s.listCategories)
		v1.GET("/categories/:genre", s.listByCategory)

		// Reader
		v1.GET("/chapters/:id", optionalAuth, s.readChapter)
		v1.GET("/chapters/:id/paywall", optionalAuth, s.getPaywall)
		v1.POST("/chapters/:id/unlock", requireAuth, RateLimit(s.unlockLimiter, viewerKey), s.unlockChapter)

		me := v1.Group("/me", requireAuth)
		{
			me.GET("", s.getMe)
			me.GET("/coins", s.getMyCoins)
			me.GET("/favorites", s.listFavorites)
			me.GET("/favorites/:manga_id", s.getFavorite)
			me.PUT("/favorites/:manga_id", s.addFavorite)
			me.DELETE("/favorites/:manga_id", s.removeFavorite)
			me.GET("/history", s.listHistory)
			me.DELETE("/history/:manga_id", s.deleteHistory)
			me.DELETE("/history", s.clearHistory)
		}

		admin := v1.Group("/admin", requireAuth, AdminMiddleware())
		{
			admin.POST("/manga", s.createManga)
			admin.PUT("/manga/:id", s.updateManga)
			admin.DELETE("/manga/:id", s.deleteManga)
			admin.POST("/manga/:id/chapters", s.createChapter)
			admin.PUT("/chapters/:id", s.updateChapter)
			admin.DELETE("/chapters/:id", s.deleteChapter)

			admin.POST("/uploads", s.uploadImages)

			admin.GET("/popular", s.getPopularEntries)
			admin.PUT("/popular", s.replacePopular)
			admin.POST("/popular/move", s.movePopular)
			admin.POST("/popular/:manga_id", s.addPopular)
			admin.DELETE("/popular/:manga_id", s.removePopular)

			admin.GET("/users/:id/coins", s.getUserCoins)
			admin.POST("/users/:id/coins", s.grantCoins)
			admin.PUT("/users/:id/role", s.updateUserRole)
		}
	}
}

// Router returns the gin router (for testing and extra routes)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// HTTPServer wraps the router in an http.Server using the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
}

// corsMiddleware handles CORS
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if _, ok := origins[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
