package handler

import (
	"net/http"
	"slices"
	"time"

	"adventure-server/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// RouterConfig - параметры HTTP сервера игры.
type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	JWTSecret      string
	Metrics        bool
	// WebSocket - обработчик /ws, nil отключает маршрут.
	WebSocket gin.HandlerFunc
}

func NewRouter(h *GameHandler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLogging(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		corsConfig.AllowAllOrigins = true
	case len(cfg.AllowedOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	default:
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	auth := middleware.Auth(cfg.JWTSecret, logger.Named("Auth"))
	h.RegisterRoutes(router, auth)
	if cfg.WebSocket != nil {
		router.GET("/ws", auth, cfg.WebSocket)
	}

	// после регистрации маршрутов
	if cfg.Metrics {
		p := ginprometheus.NewPrometheus("gin")
		p.Use(router)
	}
	return router
}
