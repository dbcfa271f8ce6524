// Package gemini adapts Google's Gemini API to llm.Model.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"aigateway/internal/llm"
)

// DefaultModel is used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.0-flash"

// safetyCategories are blocked at medium probability and above.
var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// contentGenerator is the subset of *genai.Models the adapter calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Model calls one Gemini model through the Gemini API backend.
type Model struct {
	name   string
	models contentGenerator
}

// New creates a Gemini-backed model. apiKey must be non-empty.
func New(ctx context.Context, apiKey, modelName string) (*Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newWithGenerator(modelName, client.Models), nil
}

func newWithGenerator(modelName string, models contentGenerator) *Model {
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	return &Model{name: modelName, models: models}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent sends the prompt with the fixed sampling and safety settings and
// returns the reply text. A blocked prompt or a safety stop yields llm.ErrBlocked.
func (m *Model) GenerateContent(ctx context.Context, prompt llm.Prompt) (string, error) {
	resp, err := m.models.GenerateContent(ctx, m.name,
		[]*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)},
		buildConfig(prompt),
	)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", llm.ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", llm.ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate stopped for safety", llm.ErrBlocked)
	}
	return resp.Text(), nil
}

func buildConfig(prompt llm.Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(prompt.Params.Temperature),
		TopP:            genai.Ptr(prompt.Params.TopP),
		TopK:            genai.Ptr(prompt.Params.TopK),
		MaxOutputTokens: prompt.Params.MaxOutputTokens,
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	for _, category := range safetyCategories {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return cfg
}
