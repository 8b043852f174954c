// Package llm builds the Gemini chat models used by the pipeline: a cheap
// structured-output model for extraction, a tool-calling model for research,
// and the response model that writes the assistant reply.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/nir-assistant/server/internal/agent/model"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// Config holds everything needed to construct the chat models.
type Config struct {
	APIKey  string
	BaseURL string

	Extraction model.ExtractionModelConfig
	Research   model.ResearchModelConfig
	Response   model.ResponseModelConfig
}

// Models holds the three chat models sharing one Gemini client.
type Models struct {
	Extraction *gemini.ChatModel
	Research   *gemini.ChatModel
	Response   *gemini.ChatModel

	ExtractionModelName string
	ResearchModelName   string
	ResponseModelName   string
}

// NewModels creates the shared Gemini client and the three chat models.
func NewModels(ctx context.Context, cfg Config) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	extraction, err := newChatModel(ctx, client, cfg.Extraction.Model, cfg.Extraction.Temperature, cfg.Extraction.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}
	research, err := newChatModel(ctx, client, cfg.Research.Model, cfg.Research.Temperature, cfg.Research.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating research model: %w", err)
	}
	response, err := newChatModel(ctx, client, cfg.Response.Model, cfg.Response.Temperature, cfg.Response.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &Models{
		Extraction:          extraction,
		Research:            research,
		Response:            response,
		ExtractionModelName: cfg.Extraction.Model,
		ResearchModelName:   cfg.Research.Model,
		ResponseModelName:   cfg.Response.Model,
	}, nil
}

func newChatModel(ctx context.Context, client *genai.Client, name string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
}

// BindResearchTools attaches the tool declarations to the research model.
func (m *Models) BindResearchTools(_ context.Context, tools []*schema.ToolInfo) error {
	if err := m.Research.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	logx.Debug().Msg("Successfully bound tools to research model")
	return nil
}

// LogUsage logs token usage and USD cost for one model response.
func LogUsage(modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Info().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("model usage")
}
