package main

import (
	"alcyxob/fitness-log/internal/api"
	"alcyxob/fitness-log/internal/catalog"
	"alcyxob/fitness-log/internal/config"
	"alcyxob/fitness-log/internal/logging"
	"alcyxob/fitness-log/internal/repository"
	"alcyxob/fitness-log/internal/repository/mongo"
	"alcyxob/fitness-log/internal/repository/sqlstore"
	"alcyxob/fitness-log/internal/service"
	"alcyxob/fitness-log/internal/session"
	"alcyxob/fitness-log/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// @title Fitness Log API
// @version 1.0
// @description Members, cached exercise catalog and daily workouts.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("FATAL: Could not load config: %v", err)
	}
	log := logging.New(cfg.Log)
	log.Info("Starting Fitness Log Server...")

	if cfg.Session.Secret == "" {
		log.Fatal("FATAL: session.secret (SESSION_SECRET) must be set")
	}
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Database Connection ---
	store, err := openStore(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("FATAL: Could not open the database")
	}
	defer func() {
		log.Info("Closing database...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}()
	log.WithField("driver", cfg.Database.Driver).Info("Database connection established.")

	// --- Sessions ---
	sessionStore, closeSessions, err := openSessionStore(cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("FATAL: Could not connect to Redis")
	}
	defer closeSessions()
	sessions := session.NewManager(sessionStore, cfg.Session.Secret, cfg.Session.Expiration)

	// --- Initialize Storage ---
	var files storage.FileStorage
	if cfg.S3.BucketName != "" {
		log.Info("Initializing file storage service...")
		files, err = storage.NewS3Storage(context.Background(), cfg.S3, log)
		if err != nil {
			log.WithError(err).Fatal("FATAL: Failed to initialize S3 storage")
		}
	} else {
		log.Warn("s3.bucket_name not set, avatar uploads are disabled")
	}

	// --- Initialize Services ---
	log.Info("Initializing services...")
	catalogClient := catalog.NewClient(cfg.Catalog, &http.Client{}, log)
	memberService := service.NewMemberService(store.Members, files, cfg.App.BcryptCost, log)
	exerciseService := service.NewExerciseService(store.Exercises, catalogClient, log)
	workoutService := service.NewWorkoutService(store.Workouts, store.Exercises, cfg.App.Location(), time.Now, log)

	// --- Initialize Gin Engine ---
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log))

	// --- Setup Routes ---
	api.SetupRoutes(router, log, sessions, memberService, exerciseService, workoutService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Infof("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.WithError(err).Error("ListenAndServe failed")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exiting.")
}

// openStore connects the backend named by cfg.Driver.
func openStore(cfg config.DatabaseConfig, log *logrus.Logger) (*repository.Store, error) {
	switch cfg.Driver {
	case "mongo", "":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Name)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		log.Info("Ensuring database indexes...")
		if err := mongo.EnsureIndexes(ctx, db, log); err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, err
		}
		return mongo.NewStore(client, db), nil

	case sqlstore.DriverPostgres, sqlstore.DriverSQLite:
		db, err := sqlstore.Open(context.Background(), cfg.Driver, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return sqlstore.NewStore(db), nil

	default:
		return nil, fmt.Errorf("unknown database.driver %q", cfg.Driver)
	}
}

// openSessionStore uses Redis when an address is configured and process memory otherwise.
func openSessionStore(cfg config.RedisConfig, log *logrus.Logger) (session.Store, func(), error) {
	if cfg.Addr == "" {
		log.Warn("redis.addr not set, sessions are kept in memory and lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.WithField("addr", cfg.Addr).Info("Connected to Redis")

	return session.NewRedisStore(rdb), func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis client")
		}
	}, nil
}
