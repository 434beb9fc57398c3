package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/examhall/booking-api/internal/config"
	"github.com/examhall/booking-api/internal/database"
	"github.com/examhall/booking-api/internal/feed"
	"github.com/examhall/booking-api/internal/handler"
	"github.com/examhall/booking-api/internal/middleware"
	"github.com/examhall/booking-api/internal/queue"
	"github.com/examhall/booking-api/internal/repository"
	"github.com/examhall/booking-api/internal/router"
	"github.com/examhall/booking-api/internal/service"
	"github.com/examhall/booking-api/migrations"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Repositories
	shifts := repository.NewShiftRepo(db)
	bookings := repository.NewBookingRepo(db)
	tickets := repository.NewTicketCounterRepo(db)
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)

	if err := bootstrapSuperAdmin(cfg, admins); err != nil {
		log.Fatalf("bootstrap super admin: %v", err)
	}

	// Change feed and reservation core
	fd := feed.New()
	reservations := service.NewReservationService(tickets, shifts, bookings, shifts, fd, queue.PublishBookingConfirmed)

	// Background consumer writing confirmation lines to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Redis-backed rate limiter for the public booking endpoint.
	var rateLimit echo.MiddlewareFunc
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		if rdb := config.NewRedisClient(); rdb != nil {
			rateLimit = middleware.RateLimit(rdb, rlCfg)
		} else {
			log.Printf("redis unavailable, rate limiting disabled")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(shifts, reservations), rateLimit)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins, tokens), cfg.JWTSecret)
	router.RegisterAdmin(e, cfg.JWTSecret,
		handler.NewAdminBookingHandler(reservations, bookings),
		handler.NewAdminShiftHandler(shifts, fd),
		handler.NewAdminAccountHandler(cfg, admins, tokens, fd),
		handler.NewStreamHandler(fd, shifts, bookings, admins),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// bootstrapSuperAdmin creates the configured super admin account on
// first start.  An existing account with that email is left untouched,
// including its password.
func bootstrapSuperAdmin(cfg config.Config, admins *repository.AdminRepo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := admins.GetByEmail(ctx, cfg.SuperAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrAdminNotFound) {
		return err
	}
	id, err := admins.Create(ctx, "Super Admin", cfg.SuperAdminEmail, cfg.SuperAdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	log.Printf("created super admin account id=%d email=%s", id, cfg.SuperAdminEmail)
	return nil
}
