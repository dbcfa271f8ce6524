package llm

import "context"

// Params are the sampling parameters sent with every call.
type Params struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// DefaultParams is the fixed sampling configuration used for all generators.
var DefaultParams = Params{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 8192,
}

// Prompt is one provider call.
type Prompt struct {
	System string
	User   string
	Params Params
}

// Model is a text generation backend.
type Model interface {
	// Name identifies the model in logs and metrics.
	Name() string
	// GenerateContent returns the model's text reply to prompt.
	GenerateContent(ctx context.Context, prompt Prompt) (string, error)
}
