package generativeAI

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// TextGenerator turns a prompt into model output text.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Provider() string
}

var _ TextGenerator = (*GeminiClient)(nil)

// GeminiClient is the Gemini alternative to the Bedrock text model.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.5)},
	}, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return result.Text(), nil
}

func (g *GeminiClient) Provider() string { return "gemini" }
