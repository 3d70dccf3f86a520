// Package memory provides an in-process GraphStorage used for tests
// and for runs without a configured database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/store"
)

type entityRow struct {
	seq    int
	entity common.CanonicalEntity
}

type relationshipRow struct {
	seq          int
	sourceKey    string
	targetKey    string
	relType      string
	description  string
	supportCount int
}

// GraphMemoryStorage implements store.GraphStorage entirely in memory.
// It honors the same merge semantics as the database-backed store so
// pipeline behavior is identical across both.
type GraphMemoryStorage struct {
	mu       sync.Mutex
	nextSeq  int
	entities map[string]*entityRow
	rels     map[string]*relationshipRow
}

// NewGraphMemoryStorage creates an empty in-memory graph store.
func NewGraphMemoryStorage() *GraphMemoryStorage {
	return &GraphMemoryStorage{
		entities: make(map[string]*entityRow),
		rels:     make(map[string]*relationshipRow),
	}
}

// UpsertEntities merges the batch into the store. Existing entities
// with the same normalized (name, type) key absorb incoming aliases,
// take a non-empty incoming description, and take an incoming embedding
// when present.
func (s *GraphMemoryStorage) UpsertEntities(ctx context.Context, entities []*common.CanonicalEntity) error {
	if err := ctx.Err(); err != nil {
		return &store.TransactionError{Op: "upsert entities", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		if e == nil {
			continue
		}
		key := e.Key()
		row, ok := s.entities[key]
		if !ok {
			s.nextSeq++
			s.entities[key] = &entityRow{
				seq: s.nextSeq,
				entity: common.CanonicalEntity{
					Name:        e.Name,
					Type:        e.Type,
					Aliases:     store.DedupeStrings(e.Aliases),
					Description: e.Description,
					Embedding:   cloneVector(e.Embedding),
				},
			}
			continue
		}

		row.entity.Aliases = store.DedupeStrings(append(row.entity.Aliases, e.Aliases...))
		if e.Description != "" {
			row.entity.Description = e.Description
		}
		if e.Embedding != nil {
			row.entity.Embedding = cloneVector(e.Embedding)
		}
	}
	return nil
}

// UpsertRelationships merges the batch into the store, accumulating
// SupportCount for edges that already exist.
func (s *GraphMemoryStorage) UpsertRelationships(ctx context.Context, rels []*common.CanonicalRelationship) error {
	if err := ctx.Err(); err != nil {
		return &store.TransactionError{Op: "upsert relationships", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rels {
		if r == nil || r.Source == nil || r.Target == nil {
			continue
		}
		sourceKey := r.Source.Key()
		targetKey := r.Target.Key()
		key := common.RelationshipKey(sourceKey, targetKey, r.Type)

		support := r.SupportCount
		if support <= 0 {
			support = 1
		}

		row, ok := s.rels[key]
		if !ok {
			s.nextSeq++
			s.rels[key] = &relationshipRow{
				seq:          s.nextSeq,
				sourceKey:    sourceKey,
				targetKey:    targetKey,
				relType:      r.Type,
				description:  r.Description,
				supportCount: support,
			}
			continue
		}

		row.supportCount += support
		if r.Description != "" {
			row.description = r.Description
		}
	}
	return nil
}

// QuerySimilar scores all embedded entities against the query vector
// and returns the best matches above threshold. Ties in score resolve
// by creation order.
func (s *GraphMemoryStorage) QuerySimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]common.EntityMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		seq   int
		match common.EntityMatch
	}

	results := make([]scored, 0, len(s.entities))
	for _, row := range s.entities {
		if row.entity.Embedding == nil {
			continue
		}
		if len(row.entity.Embedding) != len(embedding) {
			return nil, &common.DimensionMismatchError{
				Want: len(row.entity.Embedding),
				Got:  len(embedding),
			}
		}
		score := store.CosineSimilarity(row.entity.Embedding, embedding)
		if score < threshold {
			continue
		}
		results = append(results, scored{
			seq: row.seq,
			match: common.EntityMatch{
				Entity: cloneEntity(row.entity),
				Score:  score,
			},
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].match.Score != results[j].match.Score {
			return results[i].match.Score > results[j].match.Score
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]common.EntityMatch, len(results))
	for i, r := range results {
		out[i] = r.match
	}
	return out, nil
}

// ListEntities returns all entities in creation order.
func (s *GraphMemoryStorage) ListEntities(ctx context.Context) ([]*common.CanonicalEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*entityRow, 0, len(s.entities))
	for _, row := range s.entities {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*common.CanonicalEntity, len(rows))
	for i, row := range rows {
		e := cloneEntity(row.entity)
		out[i] = &e
	}
	return out, nil
}

// ListRelationships returns all relationships in creation order with
// their endpoints flattened to display names and types.
func (s *GraphMemoryStorage) ListRelationships(ctx context.Context) ([]common.RelationshipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*relationshipRow, 0, len(s.rels))
	for _, row := range s.rels {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]common.RelationshipRecord, 0, len(rows))
	for _, row := range rows {
		rec := common.RelationshipRecord{
			Type:         row.relType,
			Description:  row.description,
			SupportCount: row.supportCount,
		}
		if src, ok := s.entities[row.sourceKey]; ok {
			rec.SourceName = src.entity.Name
			rec.SourceType = src.entity.Type
		}
		if tgt, ok := s.entities[row.targetKey]; ok {
			rec.TargetName = tgt.entity.Name
			rec.TargetType = tgt.entity.Type
		}
		out = append(out, rec)
	}
	return out, nil
}

// Clear removes all stored entities and relationships.
func (s *GraphMemoryStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities = make(map[string]*entityRow)
	s.rels = make(map[string]*relationshipRow)
	s.nextSeq = 0
	return nil
}

// Close is a no-op for the in-memory store.
func (s *GraphMemoryStorage) Close() {}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func cloneEntity(e common.CanonicalEntity) common.CanonicalEntity {
	out := e
	out.Aliases = append([]string(nil), e.Aliases...)
	out.Embedding = cloneVector(e.Embedding)
	return out
}
