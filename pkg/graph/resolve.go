package graph

import (
	"sort"

	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/logger"
)

// Resolve collapses per-chunk extraction results into canonical
// entities and relationships.
//
// Entities sharing a normalized (name, type) key merge: aliases union
// all observed spellings, the longest description wins with earlier
// chunks breaking ties, and the first-seen spelling becomes the display
// name. Relationships group by (source, target, type) with SupportCount
// counting the collapsed raw mentions. Relationships whose endpoints
// resolve to no entity are dropped and counted as dangling.
//
// The outcome is independent of the order in which results are passed:
// results are processed in chunk order.
func Resolve(results []common.ExtractionResult) ([]*common.CanonicalEntity, []*common.CanonicalRelationship, int) {
	ordered := make([]common.ExtractionResult, 0, len(results))
	for _, r := range results {
		if r.Valid {
			ordered = append(ordered, r)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })

	byKey := make(map[string]*common.CanonicalEntity)
	byName := make(map[string]*common.CanonicalEntity)
	var entities []*common.CanonicalEntity

	for _, result := range ordered {
		for _, raw := range result.Entities {
			normalized := common.NormalizeName(raw.Name)
			if normalized == "" {
				continue
			}
			key := common.EntityKey(raw.Name, raw.Type)

			entity, ok := byKey[key]
			if !ok {
				entity = &common.CanonicalEntity{
					ID:          key,
					Name:        raw.Name,
					Type:        raw.Type,
					Aliases:     []string{raw.Name},
					Description: raw.Description,
				}
				byKey[key] = entity
				entities = append(entities, entity)
			} else {
				entity.Aliases = appendAlias(entity.Aliases, raw.Name)
				if len(raw.Description) > len(entity.Description) {
					entity.Description = raw.Description
				}
			}

			if _, ok := byName[normalized]; !ok {
				byName[normalized] = entity
			}
		}
	}

	relByKey := make(map[string]*common.CanonicalRelationship)
	var relationships []*common.CanonicalRelationship
	dangling := 0

	for _, result := range ordered {
		for _, raw := range result.Relationships {
			source, sourceOK := byName[common.NormalizeName(raw.SourceName)]
			target, targetOK := byName[common.NormalizeName(raw.TargetName)]
			if !sourceOK || !targetOK {
				dangling++
				logger.Debug("[Graph][Resolve] Dropping dangling relationship",
					"source", raw.SourceName, "target", raw.TargetName, "chunk", raw.SourceChunkID)
				continue
			}

			key := common.RelationshipKey(source.Key(), target.Key(), raw.Type)
			rel, ok := relByKey[key]
			if !ok {
				relByKey[key] = &common.CanonicalRelationship{
					ID:           key,
					Source:       source,
					Target:       target,
					Type:         raw.Type,
					Description:  raw.Description,
					SupportCount: 1,
				}
				relationships = append(relationships, relByKey[key])
				continue
			}

			rel.SupportCount++
			if len(raw.Description) > len(rel.Description) {
				rel.Description = raw.Description
			}
		}
	}

	return entities, relationships, dangling
}

func appendAlias(aliases []string, name string) []string {
	for _, a := range aliases {
		if a == name {
			return aliases
		}
	}
	return append(aliases, name)
}
