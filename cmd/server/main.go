package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/stock-count/internal/adapter/handler"
	"github.com/rl1809/stock-count/internal/adapter/storage"
	"github.com/rl1809/stock-count/internal/config"
	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/core/service"
	"github.com/rl1809/stock-count/internal/port"
)

const (
	publishTimeout  = 5 * time.Second
	publishAttempts = 3
)

type repositories interface {
	port.CatalogRepository
	port.CountRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var (
		repos repositories
		feed  port.EventRepository
		db    *sql.DB
	)
	switch cfg.Storage {
	case config.StorageMySQL:
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Fatal("failed to open mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping mysql", zap.Error(err))
		}
		mysqlAdapter := storage.NewMySQLAdapter(db)
		if err := mysqlAdapter.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate mysql", zap.Error(err))
		}
		repos = mysqlAdapter
		logger.Info("connected to mysql")

	case config.StorageMemory:
		memoryAdapter, err := newMemoryStore(cfg.SeedAdminID)
		if err != nil {
			logger.Fatal("failed to create memory store", zap.Error(err))
		}
		repos = memoryAdapter
		feed = memoryAdapter
		logger.Info("using in-memory storage", zap.Int64("admin_id", cfg.SeedAdminID))
	}

	// Activity feed
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		feed = storage.NewRedisAdapter(rdb, cfg.RedisStream)
		logger.Info("connected to redis", zap.String("stream", cfg.RedisStream))
	}

	// Core
	resolver := service.NewWarehouseResolver(repos)
	guard := service.NewGuard(resolver, cfg.ClosePolicy)
	countService := service.NewCountService(repos, repos, feed, guard, cfg.EventQueueSize, logger)

	// Event workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.EventWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, countService.Events(), feed, logger)
		}(i)
	}
	logger.Info("started event workers", zap.Int("workers", cfg.EventWorkers))

	authn := handler.NewAuthenticator(cfg.JWTSecret, repos)

	// gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogger(logger)))
	handler.NewGRPCHandler(countService, authn).Register(grpcServer)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.CountServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP server
	router := handler.NewRouter(handler.NewHTTPHandler(countService), authn, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close event queue and wait for workers
	countService.Close()
	wg.Wait()
	logger.Info("event workers stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("connections closed")
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// newMemoryStore seeds a bootstrap administrator and a starter catalog so the
// in-memory mode is usable without fixtures.
func newMemoryStore(adminID int64) (*storage.MemoryAdapter, error) {
	m, err := storage.NewMemoryAdapter()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := m.PutUser(domain.User{ID: adminID, Username: "admin", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, err
	}
	if err := m.PutWarehouse(domain.Warehouse{ID: 1, Name: "Principal", Location: "Main", Capacity: 1000, CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, err
	}
	if err := m.PutProduct(domain.Product{ID: 1, Name: "Sample", UnitsPerPackage: 12, PackagingUnit: "Caja", CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, err
	}
	return m, nil
}

// workerLoop publishes queued events to the feed. Publish is idempotent per
// event ID, so a failed attempt is retried as is.
func workerLoop(id int, queue <-chan domain.CountEvent, feed port.EventRepository, logger *zap.Logger) {
	for event := range queue {
		if feed == nil {
			continue
		}

		var err error
		for attempt := 1; attempt <= publishAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err = feed.Publish(ctx, event)
			cancel()
			if err == nil {
				break
			}
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}

		if err != nil {
			logger.Error("failed to publish event",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Int64("count_id", event.CountID),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("published event",
			zap.Int("worker", id),
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
	}
}
