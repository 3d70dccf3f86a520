package common

import (
	"strings"
	"unicode"
)

// Chunk is a bounded, possibly overlapping window of source text.
// Chunks are immutable once created; consecutive chunks of the same
// document overlap by the configured overlap and StartOffset is
// strictly increasing across the sequence.
type Chunk struct {
	ID          string `json:"id"`
	SourceDocID string `json:"source_doc_id"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Index       int    `json:"index"`
}

// RawEntity is a candidate entity mention extracted from a single chunk.
// Multiple raw entities may denote the same real-world entity; the
// resolver collapses them into canonical entities.
type RawEntity struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	SourceChunkID string `json:"source_chunk_id"`
}

// RawRelationship is a candidate relationship extracted from a single
// chunk. Source and target reference raw entities by name within the
// same chunk's extraction result.
type RawRelationship struct {
	SourceName    string `json:"source_name"`
	TargetName    string `json:"target_name"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	SourceChunkID string `json:"source_chunk_id"`
}

// ExtractionResult is the outcome of running the extractor over one
// chunk. When Valid is false the chunk is skipped downstream and the
// run's skipped-chunk counter is incremented; Reason records why.
type ExtractionResult struct {
	ChunkID       string            `json:"chunk_id"`
	ChunkIndex    int               `json:"chunk_index"`
	Entities      []RawEntity       `json:"entities"`
	Relationships []RawRelationship `json:"relationships"`
	RawOutput     string            `json:"raw_output"`
	Valid         bool              `json:"valid"`
	Reason        string            `json:"reason,omitempty"`
}

// Err returns the failure behind an invalid result as an
// *ExtractionValidationError, or nil when the result is valid.
func (r ExtractionResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ExtractionValidationError{ChunkID: r.ChunkID, Reason: r.Reason}
}

// CanonicalEntity is the deduplicated representation of a real-world
// entity within a run. The ID is a transient per-run identifier; the
// store keys persisted entities by Key() instead. Embedding is nil
// until the embedding stage has run for this entity.
type CanonicalEntity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Aliases     []string  `json:"aliases"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// Key returns the cross-run identity key of the entity.
func (e CanonicalEntity) Key() string {
	return EntityKey(e.Name, e.Type)
}

// CanonicalRelationship is a deduplicated, directional edge between two
// canonical entities. SupportCount is the number of raw relationships
// that collapsed into it.
type CanonicalRelationship struct {
	ID           string           `json:"id"`
	Source       *CanonicalEntity `json:"source"`
	Target       *CanonicalEntity `json:"target"`
	Type         string           `json:"type"`
	Description  string           `json:"description"`
	SupportCount int              `json:"support_count"`
}

// RelationshipRecord is a persisted relationship as read back from a
// graph store, with endpoints flattened to names and types.
type RelationshipRecord struct {
	SourceName   string `json:"source_name"`
	SourceType   string `json:"source_type"`
	TargetName   string `json:"target_name"`
	TargetType   string `json:"target_type"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	SupportCount int    `json:"support_count"`
}

// EntityMatch is a similarity-query result: a persisted entity together
// with its cosine similarity score against the query embedding.
type EntityMatch struct {
	Entity CanonicalEntity `json:"entity"`
	Score  float64         `json:"score"`
}

// RunStats summarizes a pipeline run. A run always completes with
// stats, even when individual chunks failed extraction; only invalid
// configuration or store retry exhaustion aborts a run.
type RunStats struct {
	ChunkCount               int `json:"chunk_count"`
	EntityCount              int `json:"entity_count"`
	RelationshipCount        int `json:"relationship_count"`
	SkippedChunks            int `json:"skipped_chunks"`
	DanglingRelationships    int `json:"dangling_relationships"`
	EntitiesWithoutEmbedding int `json:"entities_without_embedding"`
}

// legal-entity suffixes dropped during name normalization so that
// near-duplicate mentions like "OpenAI" and "OpenAI Inc." share a key
var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"plc":          true,
	"gmbh":         true,
}

// NormalizeName standardizes an entity name (or type) for identity
// comparison: case-fold, trim, strip punctuation and symbols, collapse
// whitespace, and drop trailing legal-entity suffixes. The result is
// the normalized form used in dedup keys; display names are kept
// verbatim elsewhere.
func NormalizeName(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	fields := strings.Fields(b.String())
	for len(fields) > 1 && legalSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// EntityKey builds the cross-run dedup key for an entity. Two entities
// with equal keys are considered the same persisted node.
func EntityKey(name, typ string) string {
	return NormalizeName(name) + "|" + NormalizeName(typ)
}

// RelationshipKey builds the dedup key for an edge between two entity
// keys. Edges are directional.
func RelationshipKey(sourceKey, targetKey, relType string) string {
	return sourceKey + "->" + targetKey + "|" + NormalizeName(relType)
}
