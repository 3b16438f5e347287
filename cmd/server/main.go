package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/research-assistant/pkg/clients"
	"github.com/mikeboe/research-assistant/pkg/config"
	"github.com/mikeboe/research-assistant/pkg/database"
	"github.com/mikeboe/research-assistant/pkg/logger"
	"github.com/mikeboe/research-assistant/pkg/research"
	"github.com/mikeboe/research-assistant/pkg/server"
)

// missingKey answers every request with a configuration error so the
// server can still report its health without credentials.
type missingKey struct{}

func (missingKey) Research(context.Context, string, string) (string, error) {
	return "", errors.New("GOOGLE_API_KEY is not configured")
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug("No .env file found, using environment variables")
	}

	ctx := context.Background()

	// Job history is optional.
	var store server.JobStore
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Error("Failed to initialize schema", "error", err)
			os.Exit(1)
		}
		store = db
	} else {
		log.Warn("DATABASE_URL not set, research jobs will not be recorded")
	}

	var engine server.Researcher = missingKey{}
	llm, err := clients.GoogleAi(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.Model))
	if err != nil {
		log.Warn("Research engine unavailable", "error", err)
	} else {
		eng, err := research.NewEngine(research.Config{
			LLMApiKey:     cfg.GoogleApiKey,
			Model:         cfg.Model,
			DefaultFormat: cfg.DefaultFormat,
			MaxRetries:    cfg.MaxRetries,
		}, llm)
		if err != nil {
			log.Error("Error initializing engine", "error", err)
			os.Exit(1)
		}
		eng.Logger = log
		engine = eng
	}

	svc := server.NewService(engine, store, log, server.Info{
		Model:     cfg.Model,
		APIKeySet: cfg.GoogleApiKey != "",
	})
	handler := server.NewHandler(svc)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", "Mcp-Session-Id", server.JobIDHeader},
	}))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "model", cfg.Model, "jobs", store != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("Shutdown failed", "error", err)
	}
}
