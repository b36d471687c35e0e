package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/port"
)

// ClaimQueueConfig holds settings for the claim queue worker.
type ClaimQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
	// RunTimeout bounds one full claim run, all documents included.
	RunTimeout time.Duration
}

// ClaimQueueWorker polls for queued claim runs and dispatches them through
// the pipeline.
type ClaimQueueWorker struct {
	runRepo      port.ClaimRunRepository
	claimService ClaimService
	cfg          ClaimQueueConfig
	wg           sync.WaitGroup
}

// NewClaimQueueWorker creates a new ClaimQueueWorker.
func NewClaimQueueWorker(runRepo port.ClaimRunRepository, claimService ClaimService, cfg ClaimQueueConfig) *ClaimQueueWorker {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	return &ClaimQueueWorker{
		runRepo:      runRepo,
		claimService: claimService,
		cfg:          cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight claim runs have finished.
func (w *ClaimQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("claimQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("claimQueueWorker: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("claimQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			runs, err := w.runRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("claimQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range runs {
				run := runs[i] // copy for goroutine

				if w.cfg.MaxRetries > 0 && run.Attempts > w.cfg.MaxRetries {
					log.Printf("claimQueueWorker: run %s exceeded %d attempts, marking failed",
						run.ID, w.cfg.MaxRetries)
					if err := w.runRepo.MarkFailed(ctx, run.ID, run.Status, "max retries exceeded"); err != nil {
						log.Printf("claimQueueWorker: mark failed: %v", err)
					}
					continue
				}

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), w.cfg.RunTimeout)
					defer cancel()

					log.Printf("claimQueueWorker: dispatching run %s for claim %s (attempt %d)",
						run.ID, run.ClaimID, run.Attempts)
					w.claimService.ProcessRun(runCtx, &run)
				}()
			}
		}
	}
}
