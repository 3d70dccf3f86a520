package graph

import (
	"context"
	"errors"

	"github.com/lychee-graph/lychee/internal/util"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/logger"
	"github.com/lychee-graph/lychee/pkg/store"
)

// embeddingInput is what gets embedded for an entity: the name gives
// the vector an anchor, the description the semantics.
func embeddingInput(e *common.CanonicalEntity) string {
	if e.Description == "" {
		return e.Name
	}
	return e.Name + ": " + e.Description
}

// attachEmbeddings fills Embedding on each entity in batches. A batch
// that still fails after one retry is persisted without embeddings;
// the number of such entities is returned. Only context cancellation
// aborts the stage.
func (p *Pipeline) attachEmbeddings(ctx context.Context, entities []*common.CanonicalEntity) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	withoutEmbedding := 0
	err := store.ChunkRange(len(entities), p.embedBatchSize, func(start, end int) error {
		batch := entities[start:end]
		inputs := make([]string, len(batch))
		for i, e := range batch {
			inputs[i] = embeddingInput(e)
		}

		vectors, err := util.RetryWithContext(ctx, 2, func(rCtx context.Context) ([][]float32, error) {
			return p.aiClient.GenerateEmbeddings(rCtx, inputs)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Warn("[Graph][Embed] Batch failed, persisting without embeddings",
				"entities", len(batch), "error", err)
			withoutEmbedding += len(batch)
			return nil
		}
		if len(vectors) != len(batch) {
			logger.Warn("[Graph][Embed] Batch size mismatch, persisting without embeddings",
				"want", len(batch), "got", len(vectors))
			withoutEmbedding += len(batch)
			return nil
		}

		for i, e := range batch {
			e.Embedding = vectors[i]
		}
		return nil
	})
	if err != nil {
		return withoutEmbedding, err
	}

	logger.Debug("[Graph][Embed] Embeddings attached",
		"entities", len(entities), "missing", withoutEmbedding)
	return withoutEmbedding, nil
}
