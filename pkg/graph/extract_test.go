package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lychee-graph/lychee/pkg/ai"
	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/store/memory"
)

// fakeAIClient implements ai.GraphAIClient for pipeline tests.
type fakeAIClient struct {
	mu              sync.Mutex
	complete        func(prompt string, opts *ai.GenerateOptions) (string, error)
	embed           func(inputs []string) ([][]float32, error)
	completionCalls int
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}

	f.mu.Lock()
	f.completionCalls++
	f.mu.Unlock()

	return f.complete(prompt, &options)
}

func (f *fakeAIClient) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embed != nil {
		return f.embed(inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeAIClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completionCalls
}

func newTestPipeline(t *testing.T, client *fakeAIClient) (*Pipeline, *memory.GraphMemoryStorage) {
	t.Helper()
	storage := memory.NewGraphMemoryStorage()
	p, err := NewPipeline(NewPipelineParams{
		AIClient:   client,
		Storage:    storage,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p, storage
}

const aliceJSON = `{"entities":[{"name":"Alice","type":"Person","description":"an engineer"}],"relationships":[]}`

func TestExtractChunk_RecoversWithCorrection(t *testing.T) {
	client := &fakeAIClient{}
	client.complete = func(prompt string, opts *ai.GenerateOptions) (string, error) {
		if client.calls() == 1 {
			return "[1, 2, 3", nil
		}
		// the retry must carry the corrective instruction
		if len(opts.SystemPrompts) != 2 {
			t.Fatalf("expected correction prompt on retry, got %d system prompts", len(opts.SystemPrompts))
		}
		return aliceJSON, nil
	}

	p, _ := newTestPipeline(t, client)
	result, err := p.extractChunk(context.Background(), common.Chunk{ID: "doc-0", Text: "Alice is an engineer."})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result after correction, got reason %q", result.Reason)
	}
	if result.Err() != nil {
		t.Fatalf("valid result must not carry an error, got %v", result.Err())
	}
	if len(result.Entities) != 1 || result.Entities[0].Name != "Alice" {
		t.Fatalf("unexpected entities %+v", result.Entities)
	}
	if result.Entities[0].SourceChunkID != "doc-0" {
		t.Fatal("entity must carry its source chunk id")
	}
	if client.calls() != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.calls())
	}
}

func TestExtractChunk_UnknownEndpointTriggersRetry(t *testing.T) {
	bad := `{"entities":[{"name":"Alice","type":"Person","description":"x"}],` +
		`"relationships":[{"source":"Alice","target":"Ghost Corp","type":"works_for","description":""}]}`

	client := &fakeAIClient{}
	client.complete = func(prompt string, opts *ai.GenerateOptions) (string, error) {
		if client.calls() == 1 {
			return bad, nil
		}
		if len(opts.SystemPrompts) != 2 || !strings.Contains(opts.SystemPrompts[1], "Ghost Corp") {
			t.Fatal("retry must name the offending endpoint")
		}
		return aliceJSON, nil
	}

	p, _ := newTestPipeline(t, client)
	result, err := p.extractChunk(context.Background(), common.Chunk{ID: "doc-0", Text: "Alice."})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("expected recovery, got reason %q", result.Reason)
	}
}

func TestExtractChunk_ExhaustedRetriesSkips(t *testing.T) {
	client := &fakeAIClient{}
	client.complete = func(prompt string, opts *ai.GenerateOptions) (string, error) {
		return "garbage output", nil
	}

	p, _ := newTestPipeline(t, client)
	result, err := p.extractChunk(context.Background(), common.Chunk{ID: "doc-0", Text: "text"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Reason == "" {
		t.Fatal("skipped chunk must record a reason")
	}
	var vErr *common.ExtractionValidationError
	if !errors.As(result.Err(), &vErr) {
		t.Fatalf("expected ExtractionValidationError, got %v", result.Err())
	}
	if vErr.ChunkID != "doc-0" || vErr.Reason != result.Reason {
		t.Fatalf("error must carry the chunk id and reason, got %+v", vErr)
	}
	// initial attempt plus one retry
	if client.calls() != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.calls())
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload extractionPayload
		wantErr bool
	}{
		{
			name: "valid",
			payload: extractionPayload{
				Entities: []extractedEntity{{Name: "A", Type: "Person"}},
				Relationships: []extractedRelationship{
					{Source: "A", Target: "A", Type: "self"},
				},
			},
		},
		{
			name:    "empty entity name",
			payload: extractionPayload{Entities: []extractedEntity{{Name: "  ", Type: "Person"}}},
			wantErr: true,
		},
		{
			name:    "empty entity type",
			payload: extractionPayload{Entities: []extractedEntity{{Name: "A", Type: ""}}},
			wantErr: true,
		},
		{
			name: "empty relationship type",
			payload: extractionPayload{
				Entities:      []extractedEntity{{Name: "A", Type: "Person"}},
				Relationships: []extractedRelationship{{Source: "A", Target: "A", Type: " "}},
			},
			wantErr: true,
		},
		{
			name: "unknown source",
			payload: extractionPayload{
				Entities:      []extractedEntity{{Name: "A", Type: "Person"}},
				Relationships: []extractedRelationship{{Source: "B", Target: "A", Type: "knows"}},
			},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePayload(tc.payload)
			if (err != nil) != tc.wantErr {
				t.Fatalf("got err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
