package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/internal/infrastructure/mysql"
	natsbus "auction-marketplace/internal/infrastructure/nats"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/go-playground/validator/v10"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewWithLevel(cfg.Log.Level).With("instance_id", cfg.Instance.ID)
	log.Info("Starting auction service", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := utils.SystemClock{}

	// Redis backs the event bus and leader election; it is only dialed when
	// one of them needs it.
	var rdb *redisClient.Client
	if cfg.Publisher.Driver == "redis" || cfg.Leader.Enabled {
		rdb = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer rdb.Close()
		log.Info("Connected to Redis", "address", cfg.Redis.Address)
	}

	var store repositories.AuctionStore
	switch cfg.Storage.Driver {
	case "mysql":
		db, err := utils.InitializeMysql(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to connect to MySQL", "error", err)
		}
		defer db.Close()

		if cfg.MySQL.InitSchema {
			if err := mysql.InitSchema(ctx, db); err != nil {
				log.Fatal("Failed to initialize schema", "error", err)
			}
		}
		store = mysql.NewAuctionStore(db)
	case "memory":
		log.Warn("Using in-memory storage, data is lost on restart")
		store = memory.NewStore()
	}

	var publisher domain.UpdatePublisher
	switch cfg.Publisher.Driver {
	case "redis":
		cache := redis.NewItemCache(rdb, cfg.Redis.SnapshotTTL)
		publisher = redis.NewEventPublisher(rdb, cache, clock, log)
	case "nats":
		nc, err := natsbus.Connect(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", "error", err)
		}
		defer nc.Drain()
		publisher = natsbus.NewEventPublisher(nc, clock)
	case "none":
		publisher = services.NewLogPublisher(log)
	}

	locker := services.NewItemLocker()
	notifier := services.NewNotifier(publisher, cfg.Publisher.Timeout, log)

	auctionService := services.NewAuctionService(store, locker, notifier, clock, log)
	bidService := services.NewBidService(store, locker, notifier, clock, log)
	paymentService := services.NewPaymentService(store, locker, notifier, clock, log)

	scheduler := services.NewExpiryScheduler(store, locker, notifier, clock, cfg.Scheduler.Interval, log)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	campaignDone := make(chan struct{})
	if cfg.Leader.Enabled {
		election := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL, log)
		scheduler.SetLeaderElection(election, cfg.Instance.ID)
		go func() {
			defer close(campaignDone)
			election.Campaign(runCtx, cfg.Instance.ID)
		}()
	} else {
		close(campaignDone)
	}

	if err := scheduler.Start(runCtx); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}

	dispatcher := services.NewDispatcher(cfg.Workers.Size, cfg.Workers.QueueLength, cfg.Workers.QueueTimeout, log)
	defer dispatcher.Release()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewCustomValidator(validator.New())

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			log.Debug("Request handled",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			return err
		}
	})

	api := e.Group("/api/v1")
	handlers.NewAuctionHandler(auctionService, dispatcher, log).Register(api)
	handlers.NewBidHandler(bidService, paymentService, dispatcher, log).Register(api)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-service",
			"instance":  cfg.Instance.ID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting HTTP server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	stopRun()
	<-campaignDone

	log.Info("Auction service stopped")
}
