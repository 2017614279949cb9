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

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	natsbus "auction-marketplace/internal/infrastructure/nats"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

// The broadcast service relays committed auction events to websocket
// clients. It holds no auction state of its own.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewWithLevel(cfg.Log.Level).With("service", "broadcast")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		subscriber domain.EventSubscriber
		snapshots  websocket.SnapshotSource
	)
	switch cfg.Publisher.Driver {
	case "redis":
		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer rdb.Close()

		subscriber = redis.NewEventSubscriber(rdb, log)
		snapshots = redis.NewItemCache(rdb, cfg.Redis.SnapshotTTL)
	case "nats":
		nc, err := natsbus.Connect(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", "error", err)
		}
		defer nc.Drain()

		subscriber = natsbus.NewEventSubscriber(nc, log)
	default:
		log.Fatal("Broadcast service needs an event bus", "publisher_driver", cfg.Publisher.Driver)
	}

	connManager := websocket.NewConnectionManager(log)
	eventListener := websocket.NewEventListener(connManager, log)
	wsHandler := websocket.NewHandler(snapshots, connManager, log)

	router := mux.NewRouter()
	router.Use(middleware.CORS(log))
	router.HandleFunc("/ws/items/{itemID}", wsHandler.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	listenCtx, stopListening := context.WithCancel(context.Background())
	defer stopListening()

	go func() {
		err := eventListener.Start(listenCtx, subscriber)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal("Event listener stopped", "error", err)
		}
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.BroadcastPort),
		Handler: router,
	}

	go func() {
		log.Info("Starting broadcast service", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down broadcast service...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stopListening()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Broadcast service stopped")
}
