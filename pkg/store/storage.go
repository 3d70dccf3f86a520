package store

import (
	"context"
	"fmt"

	"github.com/lychee-graph/lychee/pkg/common"
)

// GraphStorage is the persistence interface for the knowledge graph.
//
// Upserts are idempotent: entities are keyed by their normalized
// (name, type) pair across runs, relationships by the directed
// (source key, target key, type) triple. Re-ingesting the same content
// merges into existing rows instead of duplicating them.
type GraphStorage interface {
	// UpsertEntities persists a batch of canonical entities. Existing
	// entities with the same key absorb the incoming aliases, keep a
	// non-empty description, and keep their embedding unless the batch
	// carries a new one.
	UpsertEntities(ctx context.Context, entities []*common.CanonicalEntity) error

	// UpsertRelationships persists a batch of canonical relationships.
	// Both endpoints must have been upserted before. SupportCount
	// accumulates across runs.
	UpsertRelationships(ctx context.Context, rels []*common.CanonicalRelationship) error

	// QuerySimilar returns up to limit entities whose embedding cosine
	// similarity against the query vector is at least threshold, best
	// first. Entities persisted without an embedding are never matched.
	// A query vector whose dimensionality differs from the stored
	// vectors fails with common.DimensionMismatchError.
	QuerySimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]common.EntityMatch, error)

	// ListEntities returns all persisted entities in creation order.
	ListEntities(ctx context.Context) ([]*common.CanonicalEntity, error)

	// ListRelationships returns all persisted relationships with their
	// endpoints flattened.
	ListRelationships(ctx context.Context) ([]common.RelationshipRecord, error)

	// Clear removes all persisted graph data. It is never called
	// implicitly.
	Clear(ctx context.Context) error

	// Close releases the underlying connections.
	Close()
}

// TransactionError wraps a storage failure so callers can retry the
// whole batch with backoff before giving up.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("store transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
