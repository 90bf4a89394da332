package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"account_service/internal/activity"
	"account_service/internal/cache"
	"account_service/internal/config"
	"account_service/internal/middleware"
	"account_service/internal/observability"
	"account_service/internal/queue"
	"account_service/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

// SetupHandler initializes all dependencies and routes.
// conn and redisClient are optional: without them user events are not
// published and reads are not cached.
func SetupHandler(
	db *sql.DB,
	conn *amqp091.Connection,
	redisClient *redis.Client,
	cfg *config.Config,
	metrics *observability.Metrics,
) *gin.Engine {
	r := gin.New()

	// Middleware must be registered before the routes it should wrap
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.PrometheusMiddleware(metrics, "/metrics"))

	// Initialize repositories
	userRepo := user.NewUserRepository(metrics)

	var userCache user.UserCacheInterface
	if redisClient != nil {
		userCache = cache.NewUserCache(redisClient)
	}

	var publisher user.EventPublisher
	if conn != nil {
		p, err := queue.NewPublisher(conn, cfg.RabbitMQ.UserEventsQueue, metrics)
		if err != nil {
			logrus.WithError(err).Warn("User events disabled: failed to set up publisher")
		} else {
			publisher = p
		}
	}

	// Initialize services
	userService := user.NewUserService(userRepo, db, userCache, publisher, metrics)

	activityService := activity.NewActivityService(activity.NewActivityRepository(), db)

	// Initialize controllers
	userController := user.NewUserController(userService)
	activityController := activity.NewActivityController(activityService)

	setupRoutes(r, db, userController, activityController)

	return r
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, db *sql.DB, userCtrl *user.UserController, activityCtrl *activity.ActivityController) {
	userCtrl.SetupRoutes(r)
	activityCtrl.SetupRoutes(r)

	r.GET("/health", healthCheck(db))

	// Expose /metrics endpoint for Prometheus to scrape
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func healthCheck(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logrus.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
