package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/LinguaDrop/internal/api"
	"github.com/dharsanguruparan/LinguaDrop/internal/auth"
	"github.com/dharsanguruparan/LinguaDrop/internal/chat"
	"github.com/dharsanguruparan/LinguaDrop/internal/config"
	"github.com/dharsanguruparan/LinguaDrop/internal/database"
	"github.com/dharsanguruparan/LinguaDrop/internal/docs"
	"github.com/dharsanguruparan/LinguaDrop/internal/pipeline"
	"github.com/dharsanguruparan/LinguaDrop/internal/queue"
	"github.com/dharsanguruparan/LinguaDrop/internal/repository"
	"github.com/dharsanguruparan/LinguaDrop/internal/s3storage"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator/deepl"
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
	folderRepo := repository.NewFolderRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	buckets := pipeline.Buckets{Uploads: cfg.UploadBucket, Translated: cfg.TranslatedBucket}
	orchestrator := pipeline.New(translatorClient, store, docRepo, buckets, pipeline.Options{
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
	})
	docsSvc := docs.NewService(docRepo, folderRepo, store, docs.Buckets{
		Uploads:    cfg.UploadBucket,
		Translated: cfg.TranslatedBucket,
	})

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()
	enqueue := func(ctx context.Context, payload queue.TranslatePayload) error {
		return queue.EnqueueTranslate(ctx, queueClient, payload, cfg.MaxWait)
	}

	var chatClient api.Asker
	if cfg.OpenAIAPIKey != "" {
		client, err := chat.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		if err != nil {
			log.Fatalf("init chat: %v", err)
		}
		chatClient = client
	} else {
		log.Printf("OPENAI_API_KEY not set, chat endpoint disabled")
	}

	tokens := auth.NewTokenIssuer(cfg.SigningSecret, cfg.TokenTTL)
	srv := api.New(cfg, orchestrator, docsSvc, userRepo, tokens, store, enqueue, chatClient)
	if err := srv.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
