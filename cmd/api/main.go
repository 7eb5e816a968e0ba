package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/meue/rewards-backend/api/routes"
	"github.com/meue/rewards-backend/internal/bus"
	"github.com/meue/rewards-backend/internal/config"
	"github.com/meue/rewards-backend/internal/handlers"
	"github.com/meue/rewards-backend/internal/repositories"
	"github.com/meue/rewards-backend/internal/repositories/memory"
	mongorepo "github.com/meue/rewards-backend/internal/repositories/mongodb"
	"github.com/meue/rewards-backend/internal/services"
	"github.com/meue/rewards-backend/pkg/mongodb"
	"golang.org/x/exp/slog"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogger(cfg.LogLevel)

	// Repositories: Mongo in production, in-memory for local dev
	var (
		raffleRepo repositories.RaffleRepository
		offerRepo  repositories.OfferRepository
		wheelRepo  repositories.WheelRepository
		adminRepo  repositories.AdminUserRepository
	)
	if cfg.Store.UseMemory {
		slog.Warn("Using in-memory store, data will not survive a restart")
		raffleRepo = memory.NewRaffleRepository()
		offerRepo = memory.NewOfferRepository()
		wheelRepo = memory.NewWheelRepository()
		adminRepo = memory.NewAdminUserRepository()
	} else {
		mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				slog.Error("Error disconnecting from MongoDB", "error", err)
			}
		}()
		db := mongoClient.Database(cfg.MongoDB.Database)
		raffleRepo = mongorepo.NewRaffleRepository(db)
		offerRepo = mongorepo.NewOfferRepository(db)
		wheelRepo = mongorepo.NewWheelRepository(db)
		adminRepo = mongorepo.NewAdminUserRepository(db)
	}

	// Real-time bus: NATS, or the in-process bus for single-node setups
	var eventBus bus.Bus
	if cfg.NATS.Embedded {
		eventBus = bus.NewMemoryBus()
	} else {
		natsBus, err := bus.ConnectNATS(cfg.NATS.URL, "rewards-backend")
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		eventBus = natsBus
	}
	defer eventBus.Close()

	// Services
	raffleService := services.NewRaffleService(raffleRepo, offerRepo, wheelRepo)
	drawService := services.NewDrawService(raffleService, rand.New(rand.NewSource(time.Now().UnixNano())))
	syncService := services.NewSyncService(
		raffleService,
		drawService,
		eventBus,
		cfg.NATS.VisibilityTopic,
		cfg.Sync.PollInterval(),
		cfg.Sync.RecloseDelay(),
	)
	authService := services.NewAuthService(adminRepo, cfg)

	if err := authService.EnsureSeedAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Background synchronizer
	syncCtx, syncCancel := context.WithCancel(context.Background())
	defer syncCancel()
	if err := syncService.Start(syncCtx); err != nil {
		log.Fatalf("Failed to start visibility synchronizer: %v", err)
	}

	// Handlers and router
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		RaffleHandler: handlers.NewRaffleHandler(raffleService, drawService, syncService),
	}
	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	syncCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
