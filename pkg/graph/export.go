package graph

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// ExportCSV writes the persisted graph as two CSV tables, entities to
// entityW and relationships to relW. Either writer may be nil to skip
// that table.
func (p *Pipeline) ExportCSV(ctx context.Context, entityW, relW io.Writer) error {
	if entityW != nil {
		entities, err := p.storage.ListEntities(ctx)
		if err != nil {
			return err
		}

		w := csv.NewWriter(entityW)
		if err := w.Write([]string{"name", "type", "aliases", "description", "has_embedding"}); err != nil {
			return err
		}
		for _, e := range entities {
			if err := w.Write([]string{
				e.Name,
				e.Type,
				strings.Join(e.Aliases, "; "),
				e.Description,
				strconv.FormatBool(e.Embedding != nil),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}

	if relW != nil {
		rels, err := p.storage.ListRelationships(ctx)
		if err != nil {
			return err
		}

		w := csv.NewWriter(relW)
		if err := w.Write([]string{"source", "source_type", "target", "target_type", "type", "description", "support_count"}); err != nil {
			return err
		}
		for _, r := range rels {
			if err := w.Write([]string{
				r.SourceName,
				r.SourceType,
				r.TargetName,
				r.TargetType,
				r.Type,
				r.Description,
				strconv.Itoa(r.SupportCount),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}

	return nil
}
