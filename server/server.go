package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/circleapp/go-circle/env"
	"github.com/circleapp/go-circle/middleware"
	"github.com/circleapp/go-circle/publicapi"
	"github.com/circleapp/go-circle/service/logger"
	"github.com/circleapp/go-circle/service/persist"
	"github.com/circleapp/go-circle/service/persist/postgres"
	"github.com/circleapp/go-circle/service/redis"
)

// Init initializes the server
func Init() *gin.Engine {
	setDefaults()

	initLogger()
	initSentry()

	return CoreInit(postgres.NewPgxClient())
}

// CoreInit initializes core server functionality. This is abstracted so the
// test server can also utilize it
func CoreInit(pgx *pgxpool.Pool) *gin.Engine {
	logger.For(nil).Info("initializing server...")

	if env.GetString("ENV") != "production" {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}

	repos, caps := postgres.NewRepositories(pgx)
	cache := redis.NewCache("feed")

	router := gin.Default()
	router.Use(middleware.Sentry(true), middleware.GinContextToContext(), middleware.ErrLogger())
	router.Use(middleware.AddAuthToContext(repos.UserRepository))

	return handlersInit(router, repos, caps, cache)
}

func handlersInit(router *gin.Engine, repos *persist.Repositories, caps persist.StoreCapabilities, cache *redis.Cache) *gin.Engine {
	attachAPI := func(c *gin.Context) {
		publicapi.AddTo(c, repos, caps, cache)
		c.Next()
	}

	api := router.Group("/api/v1", attachAPI)

	feed := api.Group("/feed", middleware.AuthRequired())
	feed.GET("/reels", getReelFeed)
	feed.GET("/hashtag/:tag", getHashtagReels)
	feed.GET("/hashtags/trending", getTrendingHashtags)

	api.GET("/search", middleware.AuthRequired(), search)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func setDefaults() {
	env.SetDefault("ENV", "local")
	env.SetDefault("PORT", 4000)
	env.SetDefault("POSTGRES_HOST", "localhost")
	env.SetDefault("POSTGRES_PORT", 5432)
	env.SetDefault("POSTGRES_USER", "circle")
	env.SetDefault("POSTGRES_PASSWORD", "")
	env.SetDefault("POSTGRES_DB", "circle")
	env.SetDefault("REDIS_URL", "localhost:6379")
	env.SetDefault("REDIS_PASS", "")
	env.SetDefault("SENTRY_DSN", "")
}

func initLogger() {
	logger.SetLoggerOptions(func(l *logrus.Logger) {
		l.SetReportCaller(true)
		if env.GetString("ENV") == "production" {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
	})
}

func initSentry() {
	if env.GetString("ENV") == "local" {
		logger.For(nil).Info("skipping sentry init")
		return
	}

	logger.For(nil).Info("initializing sentry...")

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              env.GetString("SENTRY_DSN"),
		Environment:      env.GetString("ENV"),
		TracesSampleRate: 0.2,
		AttachStacktrace: true,
	})
	if err != nil {
		logger.For(nil).Errorf("failed to init sentry: %s", err)
	}
}

// Run starts the HTTP server on the configured port and blocks until the
// context is cancelled
func Run(ctx context.Context, router *gin.Engine) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", env.GetInt("PORT")),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
