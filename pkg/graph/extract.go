package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lychee-graph/lychee/pkg/ai"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/logger"
)

type extractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractedRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractionPayload struct {
	Entities      []extractedEntity       `json:"entities"`
	Relationships []extractedRelationship `json:"relationships"`
}

// extractChunk runs LLM extraction over one chunk. Invalid model output
// triggers up to maxRetries corrective re-prompts; when all attempts
// fail the chunk is marked invalid and the run continues without it.
// Only context cancellation is returned as an error.
func (p *Pipeline) extractChunk(ctx context.Context, chunk common.Chunk) (common.ExtractionResult, error) {
	result := common.ExtractionResult{
		ChunkID:    chunk.ID,
		ChunkIndex: chunk.Index,
	}

	types := strings.Join(p.entityTypes, ", ")
	systemPrompt := fmt.Sprintf(ai.ExtractPrompt, types, types)
	schema := ai.GenerateSchema(&extractionPayload{})

	logTokenBudget(chunk)

	reason := ""
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		prompts := []string{systemPrompt}
		if reason != "" {
			prompts = append(prompts, fmt.Sprintf(ai.ExtractCorrectionPrompt, reason))
			logger.Debug("[Graph][Extract] Retrying chunk", "chunk", chunk.ID, "attempt", attempt, "reason", reason)
		}

		raw, err := p.aiClient.GenerateCompletion(ctx, chunk.Text,
			ai.WithSystemPrompts(prompts...),
			ai.WithResponseFormat(
				"knowledge_graph_extraction",
				"Entities and relationships extracted from the text",
				schema,
			),
		)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			reason = fmt.Sprintf("request failed: %v", err)
			continue
		}

		result.RawOutput = raw

		var payload extractionPayload
		if err := ai.UnmarshalFlexible(raw, &payload); err != nil {
			reason = fmt.Sprintf("output is not valid JSON: %v", err)
			continue
		}
		if err := validatePayload(payload); err != nil {
			reason = err.Error()
			continue
		}

		for _, e := range payload.Entities {
			result.Entities = append(result.Entities, common.RawEntity{
				Name:          e.Name,
				Type:          e.Type,
				Description:   e.Description,
				SourceChunkID: chunk.ID,
			})
		}
		for _, r := range payload.Relationships {
			result.Relationships = append(result.Relationships, common.RawRelationship{
				SourceName:    r.Source,
				TargetName:    r.Target,
				Type:          r.Type,
				Description:   r.Description,
				SourceChunkID: chunk.ID,
			})
		}
		result.Valid = true
		return result, nil
	}

	result.Reason = reason
	logger.Warn("[Graph][Extract] Skipping chunk", "chunk", chunk.ID, "err", result.Err())
	return result, nil
}

// validatePayload checks the structural rules the prompt demands:
// entities need a name and type, and every relationship endpoint must
// name an entity extracted from the same chunk.
func validatePayload(payload extractionPayload) error {
	names := make(map[string]struct{}, len(payload.Entities))
	for i, e := range payload.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("entity %d has an empty name", i)
		}
		if strings.TrimSpace(e.Type) == "" {
			return fmt.Errorf("entity %q has an empty type", e.Name)
		}
		names[e.Name] = struct{}{}
	}

	for i, r := range payload.Relationships {
		if strings.TrimSpace(r.Type) == "" {
			return fmt.Errorf("relationship %d has an empty type", i)
		}
		if _, ok := names[r.Source]; !ok {
			return fmt.Errorf("relationship source %q does not match any extracted entity name", r.Source)
		}
		if _, ok := names[r.Target]; !ok {
			return fmt.Errorf("relationship target %q does not match any extracted entity name", r.Target)
		}
	}
	return nil
}

// logTokenBudget reports chunks whose prompt will exceed the typical
// 4096-token model context so oversized chunk configs are visible.
func logTokenBudget(chunk common.Chunk) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return
	}
	tokens := len(enc.Encode(chunk.Text, nil, nil))
	if tokens > 4096 {
		logger.Warn("[Graph][Extract] Chunk exceeds typical context budget", "chunk", chunk.ID, "tokens", tokens)
	} else {
		logger.Debug("[Graph][Extract] Extracting chunk", "chunk", chunk.ID, "tokens", tokens)
	}
}
