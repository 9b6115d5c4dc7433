package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/courseqa/courseqa-backend/internal/builder"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/courseqa/courseqa-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	dir := flag.String("dir", "", "Directory of documents to ingest recursively")
	file := flag.String("file", "", "Single file to ingest")
	workers := flag.Int("workers", 4, "Number of files ingested in parallel")

	// Config parsing consumes the shared flag set, including -env.
	ingestor, err := builder.BuildIngestor()
	if err != nil {
		log.Fatal("Failed to build ingestor:", err)
	}
	defer ingestor.Close()

	logger := ingestor.Logger

	if *dir == "" && *file == "" {
		logger.Fatal("either -dir or -file is required")
	}

	paths, err := collectPaths(*dir, *file)
	if err != nil {
		logger.Fatal("failed to collect input files", zap.Error(err))
	}
	if len(paths) == 0 {
		logger.Warn("no ingestible files found")
		return
	}

	logger.Info("starting batch ingestion",
		zap.Int("file_count", len(paths)),
		zap.Int("workers", *workers),
	)

	var ingested, failed, noText atomic.Int64

	g, ctx := errgroup.WithContext(ctxzap.ToContext(context.Background(), logger))
	g.SetLimit(*workers)

	for _, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Error("failed to read file", zap.String("path", path), zap.Error(err))
				failed.Add(1)
				return nil
			}

			result, err := ingestor.Usecase.IngestDocument(ctx, filepath.Base(path), data)
			if err != nil {
				// One bad document should not sink the whole batch.
				logger.Error("ingestion failed", zap.String("path", path), zap.Error(err))
				failed.Add(1)
				return nil
			}

			if result.Status == entity.IngestStatusNoText {
				noText.Add(1)
				return nil
			}

			ingested.Add(1)
			logger.Info("file ingested",
				zap.String("path", path),
				zap.Int("chunks", result.Succeeded),
				zap.Int("failed_chunks", result.Failed),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("batch ingestion aborted", zap.Error(err))
	}

	logger.Info("batch ingestion finished",
		zap.Int64("ingested", ingested.Load()),
		zap.Int64("no_text", noText.Load()),
		zap.Int64("failed", failed.Load()),
	)

	if failed.Load() > 0 {
		os.Exit(1)
	}
}

// collectPaths gathers ingestible files from the -dir tree and the -file
// argument, skipping unsupported extensions.
func collectPaths(dir, file string) ([]string, error) {
	var paths []string

	if dir != "" {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if validator.AllowedExtensions[validator.FileExt(path)] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if file != "" {
		paths = append(paths, file)
	}

	return paths, nil
}
