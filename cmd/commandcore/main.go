// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/commandcore"
	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/ai/openai"
	"github.com/poiesic/commandcore/api"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/reembed"
	"github.com/poiesic/commandcore/retrieval"
	"github.com/poiesic/commandcore/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "commandcore",
		Usage: "Knowledge base with document ingestion and retrieval-augmented answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8000",
					},
					&cli.StringFlag{
						Name:  "upload-dir",
						Usage: "Directory for keeping raw uploads (empty disables)",
					},
					&cli.IntFlag{
						Name:  "chunk-max-tokens",
						Usage: "Maximum tokens per chunk",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Token overlap between adjacent chunks",
						Value: 50,
					},
				),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a single document from disk",
				Action: ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document to ingest (.txt, .pdf, or .docx)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "domain",
						Usage:    "Knowledge domain (ai, cloud, virt-os)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (extracted metadata fills placeholders)",
						Value: "Untitled Document",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Document author",
						Value: "Unknown Author",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Publication date (YYYY-MM-DD)",
						Value: "2023-01-01",
					},
				),
			},
			{
				Name:   "query",
				Usage:  "Ask a question against the knowledge base",
				Action: queryCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Question to answer",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Restrict retrieval to one domain (ai, cloud, virt-os); empty searches all",
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity threshold for retrieved chunks",
						Value: 0.7,
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum chunks fed to the generator",
						Value: 5,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Repair knowledge records that carry fallback zero-vector embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "API token for the embedding service",
						Value: "none",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// aiFlags are the provider flags shared by every command that talks to the
// embedding and generation services.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "https://api.openai.com/v1",
		},
		&cli.StringFlag{
			Name:  "generator-host",
			Usage: "Answer generation service host URL",
			Value: "https://api.openai.com/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Answer generation model name",
			Value: "gpt-4o-mini",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the AI services",
			EnvVars: []string{"OPENAI_API_KEY"},
			Value:   "none",
		},
		&cli.IntFlag{
			Name:  "embedding-dims",
			Usage: "Embedding vector dimensions",
			Value: 1536,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithGeneratorHost(c.String("generator-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithToken(c.String("token")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dims")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func newSystem(c *cli.Context) (*commandcore.System, error) {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}

	opts := []commandcore.SystemOption{
		commandcore.WithAIConfig(aiConfig),
		commandcore.WithLogger(slog.Default()),
	}
	if c.IsSet("chunk-max-tokens") || c.IsSet("chunk-overlap") {
		opts = append(opts, commandcore.WithChunking(c.Int("chunk-max-tokens"), c.Int("chunk-overlap")))
	}

	system, err := commandcore.NewSystem(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return system, nil
}

func serveCommand(c *cli.Context) error {
	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ingestPipeline, err := system.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer ingestPipeline.Release()

	retrievalPipeline, err := system.NewRetrievalPipeline()
	if err != nil {
		return fmt.Errorf("failed to create retrieval pipeline: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		Logger:    slog.Default(),
		Ingestion: ingestPipeline,
		Retrieval: retrievalPipeline,
		Tracker:   system.Tracker(),
		UploadDir: c.String("upload-dir"),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, c.String("addr"))
}

func ingestCommand(c *cli.Context) error {
	filePath := c.String("file")
	domain := core.Domain(c.String("domain"))
	if err := core.ValidateDomain(domain); err != nil {
		return err
	}

	fileName := filepath.Base(filePath)
	if err := core.ValidateFileName(fileName); err != nil {
		return err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if err := core.ValidateFileSize(int64(len(content))); err != nil {
		return err
	}

	sourceInfo := core.SourceInfo{
		Title:           c.String("title"),
		Author:          c.String("author"),
		PublicationDate: c.String("date"),
	}
	if err := core.ValidateSourceInfo(&sourceInfo); err != nil {
		return err
	}

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	pipeline, err := system.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	jobID := system.Tracker().Create(fileName, domain)
	if err := pipeline.Enqueue(jobID, fileName, content, domain, sourceInfo); err != nil {
		return fmt.Errorf("failed to start ingestion: %w", err)
	}

	// Poll until the job reaches a terminal state.
	for {
		job, err := system.Tracker().Get(jobID)
		if err != nil {
			return err
		}
		if job.Finished() {
			return printJSON(job)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func queryCommand(c *cli.Context) error {
	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	pipeline, err := system.NewRetrievalPipeline(
		retrieval.WithMinSimilarity(float32(c.Float64("min-similarity"))),
		retrieval.WithMaxResults(c.Int("max-results")),
	)
	if err != nil {
		return fmt.Errorf("failed to create retrieval pipeline: %w", err)
	}

	result, err := pipeline.Answer(context.Background(), c.String("query"), core.Domain(c.String("domain")))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return printJSON(result)
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewKnowledgeRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
