package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/lychee-graph/lychee/internal/util"
	"github.com/lychee-graph/lychee/pkg/ai"
	oai "github.com/lychee-graph/lychee/pkg/ai/ollama"
	gai "github.com/lychee-graph/lychee/pkg/ai/openai"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/graph"
	"github.com/lychee-graph/lychee/pkg/logger"
	"github.com/lychee-graph/lychee/pkg/logger/console"
	"github.com/lychee-graph/lychee/pkg/store"
	"github.com/lychee-graph/lychee/pkg/store/memory"
	pgxstore "github.com/lychee-graph/lychee/pkg/store/pgx"
)

func main() {
	util.LoadEnv()

	var (
		filePath     = flag.String("file", "", "document to ingest (.txt, .md, .pdf)")
		text         = flag.String("text", "", "raw text to ingest")
		query        = flag.String("query", "", "similarity query against the stored graph")
		limit        = flag.Int("limit", 10, "maximum number of query results")
		threshold    = flag.Float64("threshold", 0.5, "minimum cosine similarity for query results")
		chunkSize    = flag.Int("chunk-size", 1000, "chunk window size in runes")
		chunkOverlap = flag.Int("chunk-overlap", 200, "overlap between consecutive chunks in runes")
		docID        = flag.String("doc-id", "", "source document identifier (defaults to file name)")
		noEmbeddings = flag.Bool("no-embeddings", false, "persist the graph without embedding vectors")
		clearFirst   = flag.Bool("clear", false, "clear the stored graph before ingesting")
		entityCSV    = flag.String("export-entities", "", "write stored entities to this CSV file")
		relCSV       = flag.String("export-relationships", "", "write stored relationships to this CSV file")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	aiClient := newAIClient()
	storage := newStorage(ctx)
	defer storage.Close()

	pipeline, err := graph.NewPipeline(graph.NewPipelineParams{
		AIClient:    aiClient,
		Storage:     storage,
		MaxParallel: int(util.GetEnvNumeric("MAX_PARALLEL", 4)),
	})
	if err != nil {
		logger.Fatal("Could not create pipeline", "err", err)
	}

	switch {
	case *query != "":
		matches, err := pipeline.QuerySimilar(ctx, *query, *limit, *threshold)
		if err != nil {
			logger.Fatal("Query failed", "err", err)
		}
		for _, m := range matches {
			fmt.Printf("%.4f  %s (%s)  %s\n", m.Score, m.Entity.Name, m.Entity.Type, m.Entity.Description)
		}
		if len(matches) == 0 {
			logger.Info("No entities above threshold", "threshold", *threshold)
		}

	case *filePath != "" || *text != "":
		opts := graph.ProcessOptions{
			SourceDocID:    *docID,
			ChunkSize:      *chunkSize,
			ChunkOverlap:   *chunkOverlap,
			SkipEmbeddings: *noEmbeddings,
			ClearFirst:     *clearFirst,
		}

		var stats *common.RunStats
		var err error
		if *filePath != "" {
			stats, err = pipeline.ProcessDocument(ctx, *filePath, opts)
		} else {
			stats, err = pipeline.ProcessText(ctx, *text, opts)
		}
		if err != nil {
			logger.Fatal("Ingest failed", "err", err, "stats", stats)
		}
		logger.Info("Ingest complete",
			"chunks", stats.ChunkCount,
			"entities", stats.EntityCount,
			"relationships", stats.RelationshipCount,
			"skipped", stats.SkippedChunks,
			"dangling", stats.DanglingRelationships,
			"unembedded", stats.EntitiesWithoutEmbedding)

	case *entityCSV == "" && *relCSV == "":
		flag.Usage()
		os.Exit(2)
	}

	if *entityCSV != "" || *relCSV != "" {
		if err := exportCSV(ctx, pipeline, *entityCSV, *relCSV); err != nil {
			logger.Fatal("Export failed", "err", err)
		}
	}
}

func newAIClient() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 4)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 8)),
		})
	}
}

func newStorage(ctx context.Context) store.GraphStorage {
	databaseURL := util.GetEnvString("DATABASE_URL", "")
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store (data is not persisted)")
		return memory.NewGraphMemoryStorage()
	}

	if err := pgxstore.Migrate(databaseURL); err != nil {
		logger.Fatal("Migration failed", "err", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Invalid DATABASE_URL", "err", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	return pgxstore.NewGraphDBStorage(pool)
}

func exportCSV(ctx context.Context, pipeline *graph.Pipeline, entityPath, relPath string) error {
	var entW, relW *os.File
	var err error

	if entityPath != "" {
		entW, err = os.Create(entityPath)
		if err != nil {
			return err
		}
		defer entW.Close()
	}
	if relPath != "" {
		relW, err = os.Create(relPath)
		if err != nil {
			return err
		}
		defer relW.Close()
	}

	// a nil *os.File must not become a non-nil io.Writer
	var entityWriter, relWriter io.Writer
	if entW != nil {
		entityWriter = entW
	}
	if relW != nil {
		relWriter = relW
	}
	if err := pipeline.ExportCSV(ctx, entityWriter, relWriter); err != nil {
		return err
	}
	logger.Info("Export complete", "entities", entityPath, "relationships", relPath)
	return nil
}
