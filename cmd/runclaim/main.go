// Command runclaim processes a single claim from the command line and prints
// the result as JSON. Document locations may be s3://, https://, file://, or
// bare local paths.
// Usage: runclaim -claim CLM001 doc1.pdf doc2.pdf
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/billparse"
	"github.com/aryandalviplx/OCR-bill/internal/classify"
	"github.com/aryandalviplx/OCR-bill/internal/config"
	"github.com/aryandalviplx/OCR-bill/internal/dedup"
	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/extractor/docintel"
	"github.com/aryandalviplx/OCR-bill/internal/pipeline"
	"github.com/aryandalviplx/OCR-bill/internal/port"
	"github.com/aryandalviplx/OCR-bill/internal/selection"
	"github.com/aryandalviplx/OCR-bill/internal/storage"
	"github.com/aryandalviplx/OCR-bill/internal/storage/httpsrc"
	"github.com/aryandalviplx/OCR-bill/internal/storage/localfs"
	s3storage "github.com/aryandalviplx/OCR-bill/internal/storage/s3"
)

func main() {
	claimID := flag.String("claim", "", "claim identifier (required)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall processing timeout")
	outDir := flag.String("out", "", "directory to write the output artifacts as JSON files (default: print result to stdout)")
	flag.Parse()

	if *claimID == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: runclaim -claim ID [flags] LOCATION...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*claimID, flag.Args(), *timeout, *outDir); err != nil {
		log.Fatal(err)
	}
}

func run(claimID string, locations []string, timeout time.Duration, outDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	docTimeout := time.Duration(cfg.Pipeline.DocTimeoutSecs) * time.Second
	loaders := map[string]port.DocumentLoader{
		"https": httpsrc.NewClient(docTimeout),
		"file":  localfs.NewClient(),
	}
	if s3Client, err := s3storage.NewClient(&cfg.S3); err == nil {
		loaders["s3"] = s3Client
	} else {
		log.Printf("runclaim: s3 loader unavailable: %v", err)
	}

	hasher, err := dedup.NewHasher(cfg.Pipeline.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("failed to initialize hasher: %w", err)
	}

	orchestrator := pipeline.New(
		storage.NewResolver(loaders),
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

	// Bare local paths become file:// locations.
	resolved := make([]string, len(locations))
	for i, location := range locations {
		if !strings.Contains(location, "://") {
			location = "file://" + location
		}
		resolved[i] = location
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := orchestrator.ProcessClaim(ctx, claimID, resolved)
	if err != nil {
		return err
	}

	if outDir != "" {
		return writeArtifacts(outDir, result)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// writeArtifacts writes the output bundle as one JSON file per artifact.
// Artifacts absent from the run (a claim with no final bill) are skipped.
func writeArtifacts(dir string, result *domain.ClaimResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	artifacts := map[string]any{
		"result.json": result,
	}
	if outputs := result.Outputs; outputs != nil {
		if outputs.FinalBill != nil {
			artifacts["final_bill.json"] = outputs.FinalBill
		}
		if outputs.BillItemList != nil {
			artifacts["bill_item_list.json"] = outputs.BillItemList
		}
		artifacts["supporting_doc_map.json"] = outputs.SupportingDocMap
		artifacts["audit_log.json"] = outputs.AuditLog
	}

	for name, v := range artifacts {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("runclaim: wrote %s", path)
	}
	return nil
}
