package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinscribe/intake/internal/domain/auth"
	"github.com/clinscribe/intake/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/normalizations", handler.NormalizeText)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.POST("/refresh", handler.Refresh)
			authGroup.GET("/sso/login", handler.SSOLogin)
			authGroup.GET("/sso/callback", handler.SSOCallback)
			authGroup.GET("/profile", authMiddleware(authSvc), handler.Profile)
			authGroup.POST("/logout", authMiddleware(authSvc), handler.Logout)
		}

		protected := api.Group("", authMiddleware(authSvc))
		{
			protected.POST("/complaints", handler.SubmitComplaint)
			protected.GET("/complaints", handler.ListComplaints)
			protected.GET("/complaints/trending", handler.TrendingComplaints)
			protected.GET("/complaints/:id", handler.GetComplaint)

			protected.POST("/notes", handler.UploadNote)
			protected.GET("/notes", handler.ListNotes)
			protected.GET("/notes/:id", handler.GetNote)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
