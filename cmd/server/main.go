package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/application/services"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/config"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/cache"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/database"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/locale"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/messaging"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/netsuite"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/notification"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/infrastructure/persistence"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/interfaces/middleware"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/interfaces/rest"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/logger"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
	amqpPrefetch    = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	store, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()
	log.WithField("driver", cfg.StoreDriver).Info("✅ Document store ready")

	// Failed syncs wait in redis when configured so retries survive restarts
	var retryQueue ports.RetryQueue
	if cfg.RedisAddr != "" {
		pool := cache.NewRedisPool(cfg.RedisAddr)
		defer pool.Close()
		retryQueue = cache.NewRedisRetryQueue(pool, cache.DefaultRetryKey)
		log.WithField("addr", cfg.RedisAddr).Info("🔁 Redis retry queue enabled")
	} else {
		retryQueue = cache.NewMemoryRetryQueue()
		log.Warn("⚠️  REDIS_ADDR not set, failed syncs are kept in memory")
	}

	salesReps, err := cache.NewSalesRepCache(cfg.SalesRepCacheSize)
	if err != nil {
		log.Fatalf("Failed to create sales rep cache: %v", err)
	}

	svcMgr, err := services.NewServiceManager(services.Dependencies{
		Store:         store,
		Notifier:      notification.NewClient(cfg.NotificationService),
		ERP:           netsuite.NewClient(cfg.NetsuiteService, cfg.NetsuiteAPIKey),
		Locale:        locale.NewHelper(cfg.DefaultTimeZone, "US"),
		SalesReps:     salesReps,
		Retry:         retryQueue,
		Issuer:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		FrontendURL:   cfg.FrontendURL,
		SearchTimeout: cfg.SearchTimeout,
		RetrySchedule: cfg.RetrySchedule,
	})
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	log.Info("🔧 Service manager initialized")

	svcMgr.StartRetryWorker()
	defer svcMgr.StopRetryWorker()

	// Bulk ERP exports arrive over AMQP when a broker is configured
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.AMQPURL != "" {
		consumer, err := messaging.Dial(cfg.AMQPURL, cfg.AMQPQueue, amqpPrefetch, svcMgr.Sync)
		if err != nil {
			log.Fatalf("Failed to start sync consumer: %v", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(consumerCtx); err != nil {
				log.WithError(err).Error("❌ Sync consumer stopped")
			}
		}()
	}

	if cfg.APIKey == "" {
		log.Warn("⚠️  API_KEY not set, machine-to-machine routes will reject every request")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors(cfg.AllowedOrigins))

	rest.RegisterRoutes(router, svcMgr, rest.RouteOptions{
		APIKey: cfg.APIKey,
		Cookies: rest.CookieSettings{
			Domain:     cfg.CookieDomain,
			Secure:     cfg.IsProduction(),
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("🚀 Server running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	stopConsumer()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("👋 Server exited")
}

// openStore connects the configured document store and returns a closer.
func openStore(ctx context.Context, cfg *config.Config) (ports.DocumentStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		store := persistence.NewSQLStore(db)
		if err := store.EnsureCollections(ctx, constants.CollectionCustomerLeads, constants.CollectionEmployees); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, closeSQL(db), nil

	case config.StoreMemory:
		log.Warn("⚠️  Using the in-memory store, data is lost on restart")
		return persistence.NewMemoryStore(), func() {}, nil

	default:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return persistence.NewMongoStore(client.Database(cfg.MongoDatabase)), disconnectMongo(client), nil
	}
}

func closeSQL(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
}

func disconnectMongo(client *mongo.Client) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from mongo")
		}
	}
}
