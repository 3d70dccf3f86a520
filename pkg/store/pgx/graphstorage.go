// Package pgx provides the PostgreSQL + pgvector implementation of
// store.GraphStorage.
package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/lychee-graph/lychee/internal/util"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/logger"
	"github.com/lychee-graph/lychee/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

type closer interface {
	Close()
}

// GraphDBStorage implements store.GraphStorage using PostgreSQL with
// pgvector for similarity search. Entity identity is the normalized
// (name, type) key, so re-ingesting a document merges into the rows
// written by earlier runs.
//
// A GraphDBStorage should be created using NewGraphDBStorage.
type GraphDBStorage struct {
	conn pgxIConn
}

// NewGraphDBStorage creates a new GraphDBStorage on an existing
// connection or pool. The schema must already be migrated (see
// Migrate).
func NewGraphDBStorage(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

const upsertEntitySQL = `
INSERT INTO entities (key, name, type, aliases, description, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (key) DO UPDATE SET
    aliases     = ARRAY(SELECT DISTINCT a FROM unnest(entities.aliases || EXCLUDED.aliases) AS a),
    description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE entities.description END,
    embedding   = COALESCE(EXCLUDED.embedding, entities.embedding)
`

// UpsertEntities persists a batch of canonical entities in chunked
// transactions. Conflicting keys merge aliases, prefer the non-empty
// incoming description, and keep the stored embedding when the batch
// carries none.
func (s *GraphDBStorage) UpsertEntities(ctx context.Context, entities []*common.CanonicalEntity) error {
	if len(entities) == 0 {
		return nil
	}

	err := store.ChunkRange(len(entities), 250, func(start, end int) error {
		batch := entities[start:end]
		logger.Debug("[Store][UpsertEntities] Saving chunk", "entities", len(batch))

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		b := &pgxv5.Batch{}
		for _, e := range batch {
			if e == nil {
				continue
			}
			var embedding any
			if e.Embedding != nil {
				embedding = pgvector.NewVector(e.Embedding)
			}
			aliases := store.DedupeStrings(e.Aliases)
			for i := range aliases {
				aliases[i] = util.SanitizePostgresText(aliases[i])
			}
			b.Queue(upsertEntitySQL,
				e.Key(),
				util.SanitizePostgresText(e.Name),
				util.SanitizePostgresText(e.Type),
				aliases,
				util.SanitizePostgresText(e.Description),
				embedding,
			)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return &store.TransactionError{Op: "upsert entities", Err: err}
	}
	return nil
}

const upsertRelationshipSQL = `
INSERT INTO relationships (source_id, target_id, type_key, type, description, support_count)
SELECT s.id, t.id, $3, $4, $5, $6
FROM entities s, entities t
WHERE s.key = $1 AND t.key = $2
ON CONFLICT (source_id, target_id, type_key) DO UPDATE SET
    support_count = relationships.support_count + EXCLUDED.support_count,
    description   = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE relationships.description END
`

// UpsertRelationships persists a batch of canonical relationships.
// Endpoints are resolved by entity key, so both ends must already be
// upserted. SupportCount accumulates on conflict.
func (s *GraphDBStorage) UpsertRelationships(ctx context.Context, rels []*common.CanonicalRelationship) error {
	if len(rels) == 0 {
		return nil
	}

	err := store.ChunkRange(len(rels), 500, func(start, end int) error {
		batch := rels[start:end]
		logger.Debug("[Store][UpsertRelationships] Saving chunk", "relationships", len(batch))

		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		b := &pgxv5.Batch{}
		for _, r := range batch {
			if r == nil || r.Source == nil || r.Target == nil {
				continue
			}
			support := r.SupportCount
			if support <= 0 {
				support = 1
			}
			b.Queue(upsertRelationshipSQL,
				r.Source.Key(),
				r.Target.Key(),
				common.NormalizeName(r.Type),
				util.SanitizePostgresText(r.Type),
				util.SanitizePostgresText(r.Description),
				support,
			)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return &store.TransactionError{Op: "upsert relationships", Err: err}
	}
	return nil
}

// ListEntities returns all persisted entities in creation order.
func (s *GraphDBStorage) ListEntities(ctx context.Context) ([]*common.CanonicalEntity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT name, type, aliases, description, embedding
		FROM entities
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*common.CanonicalEntity
	for rows.Next() {
		var (
			e         common.CanonicalEntity
			embedding *pgvector.Vector
		)
		if err := rows.Scan(&e.Name, &e.Type, &e.Aliases, &e.Description, &embedding); err != nil {
			return nil, err
		}
		if embedding != nil {
			e.Embedding = embedding.Slice()
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ListRelationships returns all persisted relationships with endpoints
// flattened, in creation order.
func (s *GraphDBStorage) ListRelationships(ctx context.Context) ([]common.RelationshipRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT src.name, src.type, tgt.name, tgt.type, r.type, r.description, r.support_count
		FROM relationships r
		JOIN entities src ON src.id = r.source_id
		JOIN entities tgt ON tgt.id = r.target_id
		ORDER BY r.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []common.RelationshipRecord
	for rows.Next() {
		var rec common.RelationshipRecord
		if err := rows.Scan(
			&rec.SourceName, &rec.SourceType,
			&rec.TargetName, &rec.TargetType,
			&rec.Type, &rec.Description, &rec.SupportCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear removes all graph data and resets identifiers.
func (s *GraphDBStorage) Clear(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `TRUNCATE relationships, entities RESTART IDENTITY CASCADE`)
	if err != nil {
		return &store.TransactionError{Op: "clear", Err: err}
	}
	logger.Info("[Store][Clear] Graph data removed")
	return nil
}

// Close releases the underlying pool when the connection owns one.
func (s *GraphDBStorage) Close() {
	if c, ok := s.conn.(closer); ok {
		c.Close()
	}
}
