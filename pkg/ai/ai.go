package ai

import "context"

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string          // Model identifier to use for generation
	SystemPrompts []string        // System prompts prepended to the request
	Temperature   float64         // Sampling temperature (0.0-2.0)
	Format        *ResponseFormat // Optional structured-output format
}

// ResponseFormat asks the model to emit JSON conforming to a schema.
// Schema is a JSON Schema value as produced by GenerateSchema.
type ResponseFormat struct {
	Name        string
	Description string
	Schema      any
}

// GenerateOption is a functional option for configuring AI generation
// requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for
// generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system
// prompts to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling
// temperature. Lower values make outputs more deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithResponseFormat returns a GenerateOption that constrains the model
// to a JSON schema. Backends that cannot enforce a schema fall back to
// plain JSON mode; callers must still validate the output.
func WithResponseFormat(name, description string, schema any) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = &ResponseFormat{
			Name:        name,
			Description: description,
			Schema:      schema,
		}
	}
}

// TextGenerator is the narrow text-generation capability the extraction
// pipeline depends on. Implementations wrap a specific vendor; the
// pipeline never sees vendor request or response shapes.
type TextGenerator interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
}

// EmbeddingGenerator computes vector embeddings for a batch of texts.
// All vectors produced by one implementation share the same
// dimensionality.
type EmbeddingGenerator interface {
	GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// GraphAIClient combines the two AI capabilities used in graph
// construction and querying.
type GraphAIClient interface {
	TextGenerator
	EmbeddingGenerator
}
