package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/learning-platform/internal/auth"
	"github.com/iliyamo/learning-platform/internal/cache"
	"github.com/iliyamo/learning-platform/internal/config"
	"github.com/iliyamo/learning-platform/internal/database"
	"github.com/iliyamo/learning-platform/internal/handler"
	"github.com/iliyamo/learning-platform/internal/mail"
	"github.com/iliyamo/learning-platform/internal/middleware"
	"github.com/iliyamo/learning-platform/internal/queue"
	"github.com/iliyamo/learning-platform/internal/repository"
	"github.com/iliyamo/learning-platform/internal/router"
	queue_publisher "github.com/iliyamo/learning-platform/internal/service"
	"github.com/iliyamo/learning-platform/internal/session"
)

// notificationRetention is how long read notifications are kept before
// the sweeper deletes them.
const notificationRetention = 30 * 24 * time.Hour

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis is mandatory: session validity lives entirely in the cache,
	// so without it nobody can be authenticated.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; sessions cannot work without it")
	}

	users := repository.NewUserRepo(db)
	courses := repository.NewCourseRepo(db)
	orders := repository.NewOrderRepo(db)
	notifications := repository.NewNotificationRepo(db)

	sessions := session.NewRedisStore(rdb)
	tokens := &auth.TokenService{
		AccessSecret:   cfg.AccessSecret,
		RefreshSecret:  cfg.RefreshSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		Sessions:       sessions,
	}
	mailer := mail.New(cfg)
	catalogCache := cache.New(rdb)

	authHandler := handler.NewAuthHandler(cfg, users, tokens, mailer)
	userHandler := handler.NewUserHandler(cfg, users, tokens)
	courseHandler := handler.NewCourseHandler(courses, notifications, catalogCache)
	orderHandler := &handler.OrderHandler{
		DB:            db,
		Users:         users,
		Courses:       courses,
		Orders:        orders,
		Notifications: notifications,
		Mail:          mailer,
		Publisher:     queue_publisher.AMQPPublisher{},
		Cache:         catalogCache,
		Tokens:        tokens,
	}
	notificationHandler := handler.NewNotificationHandler(notifications)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	if cfg.Origin != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.Origin},
			AllowCredentials: true,
		}))
	}
	e.HTTPErrorHandler = errorHandler(cfg.Env)

	authn := middleware.Authenticate(cfg.AccessSecret, sessions)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, authn, limiter)
	router.RegisterUsers(e, userHandler, authn)
	router.RegisterCourses(e, courseHandler, authn)
	router.RegisterOrders(e, orderHandler, authn)
	router.RegisterNotifications(e, notificationHandler, authn)

	// Background workers: the order audit consumer and the notification
	// retention sweeper.  Both run for the life of the process.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order-consumer: stopped: %v", err)
		}
	}()
	go sweepNotifications(notifications)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sweepNotifications deletes read notifications older than the
// retention window, once a day.
func sweepNotifications(repo *repository.NotificationRepo) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := repo.PurgeRead(ctx, time.Now().UTC().Add(-notificationRetention))
		cancel()
		if err != nil {
			log.Printf("notification-sweeper: purge failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("notification-sweeper: purged %d read notifications", n)
		}
	}
}

// errorHandler returns a uniform JSON error body.  Internal error
// details are hidden outside of dev.
func errorHandler(env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		} else if env == "dev" {
			msg = err.Error()
		}
		_ = c.JSON(code, echo.Map{"success": false, "message": msg})
	}
}
