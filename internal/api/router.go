package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"foundrybay/core/internal/api/handlers"
	"foundrybay/core/internal/api/middleware"
	"foundrybay/core/internal/cache"
	"foundrybay/core/internal/config"
	"foundrybay/core/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers
	providerService := services.NewProviderService(db)
	rfqService := services.NewRFQService(db, cfg, nil)
	raceService := services.NewRaceService(db, cfg, providerService, nil)
	statusCache := cache.NewStatusCache(rdb, cfg.RaceStatusCacheTTL)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	rfqHandler := handlers.NewRFQHandler(rfqService, raceService, taskClient, statusCache)
	providerHandler := handlers.NewProviderHandler(providerService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// All race operations require an authenticated identity: the
		// buyer for lifecycle operations, the provider for responses.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/rfq", rfqHandler.CreateRFQ)
			authRequired.GET("/rfq", rfqHandler.ListRFQs)
			authRequired.GET("/rfq/:id", rfqHandler.GetRFQ)
			authRequired.GET("/rfq/:id/race", rfqHandler.RaceStatus)

			authRequired.POST("/rfq/:id/accept", rfqHandler.AcceptRFQ)
			authRequired.POST("/rfq/:id/decline", rfqHandler.DeclineRFQ)
			authRequired.POST("/rfq/:id/info", rfqHandler.RequestMoreInfo)

			authRequired.POST("/rfq/:id/award", rfqHandler.AwardRFQ)
			authRequired.POST("/rfq/:id/release", rfqHandler.ReleaseHold)
			authRequired.POST("/rfq/:id/close", rfqHandler.CloseRFQ)
			authRequired.POST("/rfq/:id/cancel", rfqHandler.CancelRFQ)

			authRequired.GET("/invitations", rfqHandler.ListInvitations)
			authRequired.GET("/provider/:id", providerHandler.GetProvider)
		}
	}

	return r
}

// NewHTTPServer wraps the engine in an http.Server with sane timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
