package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gymplanner/internal/config"
	"gymplanner/internal/database"
	"gymplanner/internal/domain/auth"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/planning"
	"gymplanner/internal/domain/reservation"
	"gymplanner/internal/domain/session"
	"gymplanner/internal/events"
	"gymplanner/internal/pkg/jwt"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/pkg/logger"
	"gymplanner/internal/repository"
	"gymplanner/internal/router"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting gymplanner",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Gym.Timezone),
	)

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	// Redis is optional: without it, locks only serialize this process.
	var (
		rdb    *goredis.Client
		locker lock.Locker = lock.NewKeyedMutex()
	)
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = lock.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, falling back to in-process locks", zap.Error(err))
			rdb = nil
		} else {
			locker = lock.NewRedisLocker(rdb, log)
			log.Info("using redis locks", zap.String("addr", cfg.Redis.Addr))
		}
	}

	hub := planning.NewHub(log)
	publisher := events.Multi{hub}

	var nc *events.NatsPublisher
	if cfg.NATS.URL != "" {
		nc, err = events.NewNatsPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("nats unavailable, events stay local", zap.Error(err))
		} else {
			publisher = append(publisher, nc)
		}
	}

	tokens := jwt.New(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	users := repository.NewUserRepository(db)
	sessionRepo := session.NewRepository(db)
	reservationRepo, err := reservation.NewRepository(db)
	if err != nil {
		log.Fatal("reservation repository", zap.Error(err))
	}

	authService := auth.NewService(users, tokens, log)
	coachService := coach.NewService(coach.NewRepository(db), users, locker, log)
	reservationService := reservation.NewService(reservationRepo, sessionRepo, coachService, users, locker, publisher, log,
		reservation.WithLocation(cfg.Location()),
		reservation.WithCancelNotice(cfg.Gym.CancelNotice),
	)
	sessionService := session.NewService(sessionRepo, coachService, locker, publisher, log,
		session.WithLocation(cfg.Location()),
		session.WithDefaultCapacity(cfg.Gym.DefaultCapacity),
		session.WithEnrollmentGuard(reservationService),
	)

	engine := router.Setup(cfg, router.Handlers{
		Auth:        auth.NewHandler(authService),
		Coach:       coach.NewHandler(coachService),
		Session:     session.NewHandler(sessionService),
		Reservation: reservation.NewHandler(reservationService, log),
		Planning:    planning.NewHandler(hub, tokens, cfg.Server.CORS.AllowOrigins, log),
	}, tokens, db, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}

	if nc != nil {
		nc.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
