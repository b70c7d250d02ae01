package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/events"
	"ridehail/internal/handler"
	"ridehail/internal/identity"
	"ridehail/internal/logger"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Auth.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the development default")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
			nrApp = nil
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	stores, err := app.NewStores(ctx, cfg, nrApp, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize store")
	}
	defer stores.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisClient.Close()
		log.WithField("addr", cfg.Redis.Addr).Info("connected to Redis")
	} else {
		log.Info("redis disabled; location index and idempotency replay are off")
	}

	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("publishing ride events to Kafka")
	} else {
		publisher = events.NewLogPublisher(log)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	server := wireServer(cfg, stores, redisClient, publisher, nrApp, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	cfg *config.Config,
	stores *app.Stores,
	redisClient *redis.Client,
	publisher events.Publisher,
	nrApp *newrelic.Application,
	log *logrus.Logger,
) *http.Server {
	// Left as a nil interface when Redis is disabled.
	var index internalRedis.LocationIndex
	if redisClient != nil {
		index = internalRedis.NewLocationStore(redisClient)
	}

	policy := service.FarePolicy{
		BaseFare:  cfg.Fare.BaseFare,
		PerKmRate: cfg.Fare.PerKmRate,
	}

	notificationService := service.NewNotificationService(publisher, log)
	driverService := service.NewDriverService(stores.Drivers, stores.Rides, index, log)

	var surge service.SurgePricer = service.StaticSurge(cfg.Fare.SurgeMultiplier)
	if cfg.Fare.DynamicSurge {
		surge = service.NewSurgeService(driverService, stores.Rides, cfg.Fare.SurgeMultiplier)
	}

	rideService := service.NewRideService(stores.Rides, stores.Drivers, index, surge, notificationService, log)
	matchingService := service.NewMatchingService(stores.Rides, index, notificationService, log)
	fareService := service.NewFareService(stores.Rides, policy, notificationService, log)
	paymentService := service.NewPaymentService(stores.Rides, notificationService, log)
	receiptService := service.NewReceiptService(stores.Rides, policy)
	feedbackService := service.NewFeedbackService(stores.Rides, stores.Feedback, notificationService, log)

	router := app.NewRouter(app.RouterDeps{
		RideHandler:     handler.NewRideHandler(rideService, matchingService),
		DriverHandler:   handler.NewDriverHandler(driverService),
		PaymentHandler:  handler.NewPaymentHandler(fareService, paymentService, receiptService),
		FeedbackHandler: handler.NewFeedbackHandler(feedbackService),
		TokenParser:     identity.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		Logger:          log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
