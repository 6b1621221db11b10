package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"artesanos/internal/auth"
	"artesanos/internal/blob"
	"artesanos/internal/compress"
	"artesanos/internal/events"
	"artesanos/internal/intake"
	"artesanos/internal/models"
	"artesanos/internal/server"
	"artesanos/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	cfg, err := models.LoadConfig("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.NewStorage(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage")
	}
	defer db.Close()

	store, err := blob.New(cfg.Minio)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init blob storage")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare bucket")
	}

	// Kafka producer
	producer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  []string{cfg.KafkaBroker},
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.Hash{},
	})
	defer producer.Close()

	// Thumbnail worker consumes the same topic in background
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.KafkaBroker},
		Topic:   cfg.KafkaTopic,
		GroupID: "thumbnail-group",
	})
	defer consumer.Close()
	worker := events.NewThumbnailWorker(consumer, store, db, cfg.Images.ThumbnailSize,
		log.With().Str("component", "thumbnails").Logger())
	go worker.Run(ctx)

	previews := intake.NewMemoryPreviews()
	orch := intake.NewOrchestrator(compress.New(nil), store, intake.Options{
		MaxWidth: cfg.Images.MaxWidth,
		Quality:  cfg.Images.Quality,
	}, log.With().Str("component", "intake").Logger())
	drafts := intake.NewDrafts(previews, orch, cfg.Drafts.TTL, log.Logger)
	go drafts.RunSweeper(ctx, cfg.Drafts.SweepInterval)

	srv := server.NewServer(cfg, server.Deps{
		Products: db,
		Orders:   db,
		Artisans: db,
		Events:   events.NewPublisher(producer),
		Drafts:   drafts,
		Previews: previews,
		Auth:     auth.New(cfg.JWTSecret, 24*time.Hour),
		Log:      log.Logger,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
