package pgx

import (
	"context"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lychee-graph/lychee/pkg/common"
)

// Query runs an arbitrary read query against the graph schema and
// returns the rows as column-name keyed maps. Intended for ad-hoc
// inspection; the typed accessors cover everything the pipeline needs.
func (s *GraphDBStorage) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// QuerySimilar returns up to limit entities whose cosine similarity to
// the query vector is at least threshold, best first with creation
// order breaking ties. The stored dimensionality is checked up front so
// a misconfigured embedding model fails loudly instead of returning an
// empty result.
func (s *GraphDBStorage) QuerySimilar(
	ctx context.Context,
	embedding []float32,
	limit int,
	threshold float64,
) ([]common.EntityMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	var dims int
	err := s.conn.QueryRow(ctx, `
		SELECT vector_dims(embedding)
		FROM entities
		WHERE embedding IS NOT NULL
		LIMIT 1
	`).Scan(&dims)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if dims != len(embedding) {
		return nil, &common.DimensionMismatchError{Want: dims, Got: len(embedding)}
	}

	query := pgvector.NewVector(embedding)
	rows, err := s.conn.Query(ctx, `
		SELECT name, type, aliases, description, embedding,
		       1 - (embedding <=> $1) AS score
		FROM entities
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $2
		ORDER BY score DESC, id ASC
		LIMIT $3
	`, query, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []common.EntityMatch
	for rows.Next() {
		var (
			m   common.EntityMatch
			emb pgvector.Vector
		)
		if err := rows.Scan(
			&m.Entity.Name, &m.Entity.Type, &m.Entity.Aliases,
			&m.Entity.Description, &emb, &m.Score,
		); err != nil {
			return nil, err
		}
		m.Entity.Embedding = emb.Slice()
		out = append(out, m)
	}
	return out, rows.Err()
}
