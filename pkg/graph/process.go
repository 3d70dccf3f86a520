package graph

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lychee-graph/lychee/internal/util"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/logger"
)

// ProcessText runs the full pipeline over raw text: chunk, extract,
// resolve, embed, persist. It always returns stats for what was
// completed; the error is non-nil only for invalid configuration,
// context cancellation, or store retry exhaustion.
func (p *Pipeline) ProcessText(ctx context.Context, text string, opts ProcessOptions) (*common.RunStats, error) {
	opts = opts.withDefaults()

	docID := opts.SourceDocID
	if docID == "" {
		docID = gonanoid.Must(12)
	}

	chunks, err := Chunk(docID, text, opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if opts.ClearFirst {
		if err := p.retryStore(ctx, "clear", func(rCtx context.Context) error {
			return p.storage.Clear(rCtx)
		}); err != nil {
			return nil, err
		}
	}

	stats := &common.RunStats{ChunkCount: len(chunks)}
	if len(chunks) == 0 {
		logger.Info("[Graph][Process] Nothing to process", "doc", docID)
		return stats, nil
	}

	logger.Info("[Graph][Process] Starting run",
		"doc", docID, "chunks", len(chunks), "size", opts.ChunkSize, "overlap", opts.ChunkOverlap)

	// results are indexed by chunk sequence so output order does not
	// depend on goroutine scheduling
	results := make([]common.ExtractionResult, len(chunks))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(p.maxParallel)
	for i := range chunks {
		eg.Go(func() error {
			res, err := p.extractChunk(ectx, chunks[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, err
	}

	for _, r := range results {
		if !r.Valid {
			stats.SkippedChunks++
		}
	}

	entities, relationships, dangling := Resolve(results)
	stats.EntityCount = len(entities)
	stats.RelationshipCount = len(relationships)
	stats.DanglingRelationships = dangling

	if opts.SkipEmbeddings {
		stats.EntitiesWithoutEmbedding = len(entities)
	} else {
		missing, err := p.attachEmbeddings(ctx, entities)
		if err != nil {
			return stats, err
		}
		stats.EntitiesWithoutEmbedding = missing
	}

	if err := p.retryStore(ctx, "upsert entities", func(rCtx context.Context) error {
		return p.storage.UpsertEntities(rCtx, entities)
	}); err != nil {
		return stats, err
	}
	if err := p.retryStore(ctx, "upsert relationships", func(rCtx context.Context) error {
		return p.storage.UpsertRelationships(rCtx, relationships)
	}); err != nil {
		return stats, err
	}

	logger.Info("[Graph][Process] Run complete",
		"doc", docID,
		"entities", stats.EntityCount,
		"relationships", stats.RelationshipCount,
		"skipped", stats.SkippedChunks,
		"dangling", stats.DanglingRelationships,
		"unembedded", stats.EntitiesWithoutEmbedding)

	return stats, nil
}

// QuerySimilar embeds the query text and returns the most similar
// persisted entities. Limit defaults to 10 when non-positive.
func (p *Pipeline) QuerySimilar(ctx context.Context, query string, limit int, threshold float64) ([]common.EntityMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", common.ErrInvalidConfig)
	}
	if limit <= 0 {
		limit = 10
	}

	vectors, err := p.aiClient.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("query embedding failed: got %d vectors", len(vectors))
	}

	return p.storage.QuerySimilar(ctx, vectors[0], limit, threshold)
}

// retryStore wraps a storage call with exponential backoff so a
// transient outage does not abort a long run.
func (p *Pipeline) retryStore(ctx context.Context, op string, fn func(context.Context) error) error {
	err := util.RetryErrBackoff(ctx, defaultStoreRetries, time.Second, fn)
	if err != nil {
		logger.Error("[Graph][Process] Store operation failed after retries", "op", op, "error", err)
	}
	return err
}
