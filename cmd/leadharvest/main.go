// The main package for the leadharvest service executable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"leadharvest/internal/api"
	"leadharvest/internal/apify"
	"leadharvest/internal/archive"
	"leadharvest/internal/clock/system"
	"leadharvest/internal/config"
	"leadharvest/internal/contactcrawl"
	"leadharvest/internal/harvest"
	"leadharvest/internal/id/uuid"
	"leadharvest/internal/logging"
	"leadharvest/internal/metrics"
	"leadharvest/internal/notify"
	"leadharvest/internal/orchestrator"
	"leadharvest/internal/registry"
	"leadharvest/internal/sheets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "leadharvest:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	// A missing .env file is fine; deployments set real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	reg := registry.New(uuid.New(), clock, logger)
	go reg.RunSweeper(ctx, cfg.SweepInterval(), cfg.Retention())

	apifyClient := apify.New(apify.Config{
		Token:          cfg.Apify.Token,
		ListingActor:   cfg.Apify.ListingActor,
		ContactActor:   cfg.Apify.ContactActor,
		ResultCount:    cfg.Apify.ResultCount,
		ProxyGroup:     cfg.Apify.ProxyGroup,
		MaxConcurrency: cfg.Apify.MaxConcurrency,
		ContactDepth:   cfg.Apify.ContactDepth,
		ContactMaxReqs: cfg.Apify.ContactMaxReqs,
		PollInterval:   time.Duration(cfg.Apify.PollSeconds) * time.Second,
		RunTimeout:     time.Duration(cfg.Apify.TimeoutSeconds) * time.Second,
	}, logger)

	var contacts harvest.ContactScraper = apifyClient
	if cfg.Apify.ContactActor == "" {
		logger.Info("no contact actor configured, using built-in crawler")
		contacts = contactcrawl.New(contactcrawl.Config{
			UserAgent:   cfg.Crawl.UserAgent,
			MaxDepth:    cfg.Crawl.MaxDepth,
			MaxRequests: cfg.Crawl.MaxRequests,
			Timeout:     time.Duration(cfg.Crawl.TimeoutSeconds) * time.Second,
		}, logger)
	}

	opener := sheets.NewOpener(sheets.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		Worksheet:       cfg.Sheets.Worksheet,
	}, logger)

	archiver, archiveClose, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer archiveClose()

	publisher, notifyClose, err := buildNotify(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer notifyClose()

	orch := orchestrator.New(reg, apifyClient, contacts, opener, archiver, publisher,
		clock, cfg.RequiredSecrets(), logger)

	server := api.NewServer(ctx, reg, orch, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.Provider, func(), error) {
	switch cfg.Archive.Provider {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		gcs, err := archive.NewGCS(client, cfg.Archive.GCSBucket, cfg.Archive.Prefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("archiving raw datasets to GCS", zap.String("bucket", cfg.Archive.GCSBucket))
		return gcs, func() { _ = client.Close() }, nil
	default:
		return archive.NoOp{}, func() {}, nil
	}
}

func buildNotify(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, func(), error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Notify.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pubsub client: %w", err)
		}
		topic := client.Topic(cfg.Notify.Topic)
		pub, err := notify.NewPubSub(topic)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("publishing row events to Pub/Sub", zap.String("topic", cfg.Notify.Topic))
		return pub, func() {
			topic.Stop()
			_ = client.Close()
		}, nil
	case "memory":
		return notify.NewMemory(), func() {}, nil
	default:
		return notify.NoOp{}, func() {}, nil
	}
}
