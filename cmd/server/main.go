package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/config"
	"github.com/inkfell/cairn/internal/core"
	"github.com/inkfell/cairn/internal/core/cluster"
	"github.com/inkfell/cairn/internal/llm"
	"github.com/inkfell/cairn/internal/scheduler"
	"github.com/inkfell/cairn/internal/server"
	"github.com/inkfell/cairn/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	params := cluster.Params{
		Threshold:  cfg.Clustering.SimilarityThreshold,
		WindowDays: cfg.Clustering.WindowDays,
		MinSize:    cfg.Clustering.MinClusterSize,
		MaxSize:    cfg.Clustering.MaxClusterSize,
	}

	ctx := context.Background()

	var st store.EventStore
	switch cfg.Storage.Backend {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st, err = store.NewNeo4jStore(cfg.Storage.URI, cfg.Storage.User, cfg.Storage.Password, logger)
		if err != nil {
			logger.Fatal("failed to connect to graph store", zap.Error(err))
		}
	}
	defer st.Close(ctx)

	if err := st.BuildIndices(ctx); err != nil {
		logger.Fatal("failed to build indices", zap.Error(err))
	}

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize llm client", zap.Error(err))
	}

	organizer, err := core.NewOrganizer(st, llmClient, params, cfg.Prompts.ClusterTitle, logger)
	if err != nil {
		logger.Fatal("invalid clustering parameters", zap.Error(err))
	}

	if cfg.Scheduler.Cron != "" {
		sched := scheduler.New(organizer, logger)
		if err := sched.Start(cfg.Scheduler.Cron); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := server.New(organizer, st, embedder, logger)
	r := srv.SetupRouter()

	logger.Info("starting server", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
