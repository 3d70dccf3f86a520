package ai

import (
	"testing"
)

func TestUnmarshalFlexible_GraphVariants(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	type graph struct {
		Entities []entity `json:"entities"`
	}

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "valid json object",
			input: `{"entities":[{"name":"OpenAI","type":"Organization"}]}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"entities\":[{\"name\":\"OpenAI\",\"type\":\"Organization\"}]}\n```",
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{entities: [{name: 'OpenAI', type: 'Organization'}]}`,
		},
		{
			name:  "trailing comma",
			input: `{"entities":[{"name":"OpenAI","type":"Organization"},]}`,
		},
		{
			name:  "missing closing brackets",
			input: `{"entities":[{"name":"OpenAI","type":"Organization"`,
		},
		{
			name:  "stringified json",
			input: `"{\"entities\":[{\"name\":\"OpenAI\",\"type\":\"Organization\"}]}"`,
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\"entities\":[{\"name\":\"OpenAI\",\"type\":\"Organization\"}]}",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got graph
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if len(got.Entities) != 1 {
				t.Fatalf("expected 1 entity, got %+v", got.Entities)
			}
			if got.Entities[0].Name != "OpenAI" || got.Entities[0].Type != "Organization" {
				t.Fatalf("unexpected entity: %+v", got.Entities[0])
			}
		})
	}
}

func TestUnmarshalFlexible_RejectsGarbage(t *testing.T) {
	var out map[string]any
	if err := UnmarshalFlexible("", &out); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestGenerateSchema_IncludesProperties(t *testing.T) {
	type response struct {
		Entities []struct {
			Name string `json:"name"`
		} `json:"entities"`
	}

	schema := GenerateSchema(&response{})
	if schema == nil {
		t.Fatal("expected schema, got nil")
	}
}
