package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler     *handler.RideHandler
	DriverHandler   *handler.DriverHandler
	PaymentHandler  *handler.PaymentHandler
	FeedbackHandler *handler.FeedbackHandler
	TokenParser     middleware.TokenParser
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	Logger          logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NoticeErrors())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes. Every route requires a bearer token.
	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(deps.TokenParser))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	{
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/available", deps.RideHandler.ListAvailable)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.GET("/:id/track", deps.RideHandler.TrackRide)

			rides.POST("/:id/fare", deps.PaymentHandler.CalculateFare)
			rides.PATCH("/:id/payment", deps.PaymentHandler.MarkPaid)
			rides.GET("/:id/receipt", deps.PaymentHandler.GetReceipt)

			rides.POST("/:id/feedback", deps.FeedbackHandler.Submit)
			rides.GET("/:id/feedback", deps.FeedbackHandler.List)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/nearby", deps.DriverHandler.Nearby)
			drivers.GET("/me/history", deps.RideHandler.History)
		}

		riders := v1.Group("/riders")
		{
			riders.GET("/me/history", deps.RideHandler.History)
		}
	}

	return router
}
