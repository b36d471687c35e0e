package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/billparse"
	"github.com/aryandalviplx/OCR-bill/internal/classify"
	"github.com/aryandalviplx/OCR-bill/internal/config"
	"github.com/aryandalviplx/OCR-bill/internal/dedup"
	"github.com/aryandalviplx/OCR-bill/internal/extractor/docintel"
	"github.com/aryandalviplx/OCR-bill/internal/handler"
	"github.com/aryandalviplx/OCR-bill/internal/pipeline"
	"github.com/aryandalviplx/OCR-bill/internal/port"
	"github.com/aryandalviplx/OCR-bill/internal/repository/postgres"
	"github.com/aryandalviplx/OCR-bill/internal/router"
	"github.com/aryandalviplx/OCR-bill/internal/selection"
	"github.com/aryandalviplx/OCR-bill/internal/service"
	"github.com/aryandalviplx/OCR-bill/internal/storage"
	"github.com/aryandalviplx/OCR-bill/internal/storage/httpsrc"
	s3storage "github.com/aryandalviplx/OCR-bill/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	runRepo := postgres.NewClaimRunRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewClient(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	docTimeout := time.Duration(cfg.Pipeline.DocTimeoutSecs) * time.Second
	loader := storage.NewResolver(map[string]port.DocumentLoader{
		"s3":    s3Client,
		"https": httpsrc.NewClient(docTimeout),
	})

	// Initialize pipeline
	hasher, err := dedup.NewHasher(cfg.Pipeline.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("failed to initialize hasher: %w", err)
	}
	orchestrator := pipeline.New(
		loader,
		docintel.NewClient(&cfg.Extractor),
		billparse.NewExtractor(),
		classify.NewHeuristicClassifier(),
		dedup.NewDetector(hasher),
		selection.NewSelector(selection.Config{
			TotalToleranceMU: cfg.Pipeline.TotalToleranceMU,
			TieBreakEnabled:  cfg.Pipeline.TieBreakEnabled,
		}),
		pipeline.Config{
			DocConcurrency: cfg.Pipeline.DocConcurrency,
			DocTimeout:     docTimeout,
		},
	)

	// Initialize services
	tokenSvc := service.NewTokenService(cfg.JWT)
	claimSvc := service.NewClaimService(runRepo, auditRepo, orchestrator, s3Client, service.ArchiveConfig{
		Enabled:       cfg.S3.ArchiveBundle,
		Bucket:        cfg.S3.Bucket,
		PresignExpiry: cfg.S3.PresignExpiry,
	})

	// Initialize handlers
	claimH := handler.NewClaimHandler(claimSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(tokenSvc, claimH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the claim queue worker
	worker := service.NewClaimQueueWorker(runRepo, claimSvc, service.ClaimQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone

	return nil
}
