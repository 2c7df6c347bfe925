package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/LinguaDrop/internal/config"
	"github.com/dharsanguruparan/LinguaDrop/internal/database"
	"github.com/dharsanguruparan/LinguaDrop/internal/pipeline"
	"github.com/dharsanguruparan/LinguaDrop/internal/repository"
	"github.com/dharsanguruparan/LinguaDrop/internal/s3storage"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator/deepl"
	"github.com/dharsanguruparan/LinguaDrop/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	store, err := s3storage.New(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		log.Fatalf("ensure buckets: %v", err)
	}

	translatorClient, err := deepl.New(cfg.DeepLAPIKey, cfg.DeepLBaseURL)
	if err != nil {
		log.Fatalf("init translator: %v", err)
	}

	docRepo := repository.NewDocumentRepository(pool)
	buckets := pipeline.Buckets{Uploads: cfg.UploadBucket, Translated: cfg.TranslatedBucket}
	orchestrator := pipeline.New(translatorClient, store, docRepo, buckets, pipeline.Options{
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
	})

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	processor := worker.NewProcessor(orchestrator, store)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.Run(mux); err != nil {
		log.Printf("worker stopped: %v", err)
		os.Exit(1)
	}
}
