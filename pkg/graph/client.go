// Package graph turns unstructured text into a persisted knowledge
// graph: chunking, LLM extraction, entity resolution, embedding, and
// storage.
package graph

import (
	"fmt"

	"github.com/lychee-graph/lychee/pkg/ai"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/store"
)

const (
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultMaxParallel    = 4
	defaultMaxRetries     = 2
	defaultEmbedBatchSize = 32
	defaultStoreRetries   = 3
)

// Pipeline orchestrates graph construction runs against one AI client
// and one graph store. It is safe for concurrent use; each Process*
// call is an independent run.
//
// A Pipeline should be created using NewPipeline.
type Pipeline struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage

	entityTypes    []string
	maxParallel    int
	maxRetries     int
	embedBatchSize int
}

// NewPipelineParams defines the configuration parameters for creating
// a new Pipeline.
type NewPipelineParams struct {
	AIClient ai.GraphAIClient
	Storage  store.GraphStorage

	// EntityTypes offered to the extraction model. Defaults to
	// ai.DefaultEntityTypes.
	EntityTypes []string

	// MaxParallel bounds concurrent chunk extractions.
	MaxParallel int

	// MaxRetries is the number of corrective re-prompts after an
	// invalid extraction before the chunk is skipped.
	MaxRetries int

	// EmbedBatchSize is the number of entities embedded per request.
	EmbedBatchSize int
}

// NewPipeline creates a new Pipeline with the provided parameters.
func NewPipeline(params NewPipelineParams) (*Pipeline, error) {
	if params.AIClient == nil {
		return nil, fmt.Errorf("%w: ai client is required", common.ErrInvalidConfig)
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("%w: storage is required", common.ErrInvalidConfig)
	}

	entityTypes := params.EntityTypes
	if len(entityTypes) == 0 {
		entityTypes = ai.DefaultEntityTypes
	}
	maxParallel := params.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	maxRetries := params.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	embedBatchSize := params.EmbedBatchSize
	if embedBatchSize <= 0 {
		embedBatchSize = defaultEmbedBatchSize
	}

	return &Pipeline{
		aiClient: params.AIClient,
		storage:  params.Storage,

		entityTypes:    entityTypes,
		maxParallel:    maxParallel,
		maxRetries:     maxRetries,
		embedBatchSize: embedBatchSize,
	}, nil
}

// ProcessOptions configures a single run.
type ProcessOptions struct {
	// SourceDocID labels the chunks of this run. Defaults to a random
	// run identifier.
	SourceDocID string

	// ChunkSize is the window size in runes. Defaults to 1000.
	ChunkSize int

	// ChunkOverlap is the rune overlap between consecutive chunks and
	// must be smaller than ChunkSize. It defaults to 200 only when
	// ChunkSize is also unset; an explicit ChunkSize takes the overlap
	// as given, so zero means non-overlapping chunks.
	ChunkOverlap int

	// SkipEmbeddings persists the graph without embedding vectors.
	SkipEmbeddings bool

	// ClearFirst wipes the store before ingesting.
	ClearFirst bool
}

func (o ProcessOptions) withDefaults() ProcessOptions {
	// an explicit zero overlap must survive, so only a fully unset
	// chunk config picks up the defaults
	if o.ChunkSize == 0 {
		o.ChunkSize = defaultChunkSize
		if o.ChunkOverlap == 0 {
			o.ChunkOverlap = defaultChunkOverlap
		}
	}
	return o
}
