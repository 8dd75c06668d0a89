// File: /routes/routes.go
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/controllers"
	"motocosmos-telemetry/middleware"
	"motocosmos-telemetry/services"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, rideService *services.RideService) {
	// Controllers
	rideController := controllers.NewRideController(rideService)
	telemetryController := controllers.NewTelemetryController(rideService)
	analyticsController := controllers.NewAnalyticsController(rideService)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		rides := protected.Group("/rides")
		{
			rides.GET("/", middleware.PaginationDefaults(), rideController.GetRides)
			rides.POST("/start", rideController.StartRide)
			rides.GET("/:id", rideController.GetRide)
			rides.PUT("/:id/end", rideController.EndRide)
			rides.POST("/:id/recompute", rideController.RecomputeRide)

			rides.POST("/:id/telemetry",
				middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
				telemetryController.IngestTelemetry)
			rides.GET("/:id/telemetry", telemetryController.GetTelemetry)

			rides.GET("/:id/analytics", analyticsController.GetAnalytics)
			rides.GET("/:id/safety-events", analyticsController.GetSafetyEvents)
		}
	}
}

// SetupCORS allows the mobile and web clients to call the API
func SetupCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// NewRouter builds the engine with the middleware chain shared by every route
func NewRouter(cfg *config.Config, rideService *services.RideService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(SetupCORS())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ValidateJSON())
	router.Use(middleware.ErrorHandler())

	SetupRoutes(router, cfg, rideService)
	return router
}
