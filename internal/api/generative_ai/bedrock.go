package generativeAI

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

var _ TextGenerator = (*BedrockClient)(nil)

// BedrockRuntimeAPI is the part of *bedrockruntime.Client used here.
type BedrockRuntimeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient invokes a Nova-family text model with the messages body.
type BedrockClient struct {
	client  BedrockRuntimeAPI
	modelID string
}

func NewBedrockClient(client BedrockRuntimeAPI, modelID string) *BedrockClient {
	return &BedrockClient{client: client, modelID: modelID}
}

type novaContent struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string        `json:"role"`
	Content []novaContent `json:"content"`
}

type novaRequest struct {
	Messages []novaMessage `json:"messages"`
}

type novaResponse struct {
	Output *struct {
		Message *struct {
			Content []novaContent `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

func (b *BedrockClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(novaRequest{
		Messages: []novaMessage{{Role: "user", Content: []novaContent{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	raw, err := b.InvokeRaw(ctx, body)
	if err != nil {
		return "", err
	}

	var resp novaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}
	if resp.Output == nil || resp.Output.Message == nil {
		return fmt.Sprintf("Unexpected response format: %s", raw), nil
	}

	var out strings.Builder
	for _, c := range resp.Output.Message.Content {
		out.WriteString(c.Text)
	}
	return out.String(), nil
}

// InvokeRaw sends body unchanged to the model and returns the raw response.
func (b *BedrockClient) InvokeRaw(ctx context.Context, body []byte) ([]byte, error) {
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", b.modelID, err)
	}
	return bytes.TrimSpace(out.Body), nil
}

func (b *BedrockClient) Provider() string { return "bedrock" }

// BedrockCatalogAPI is the part of *bedrock.Client used here.
type BedrockCatalogAPI interface {
	ListFoundationModels(ctx context.Context, params *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
}

type BedrockCatalog struct {
	client BedrockCatalogAPI
}

func NewBedrockCatalog(client BedrockCatalogAPI) *BedrockCatalog {
	return &BedrockCatalog{client: client}
}

// ListModels returns the ids of the foundation models visible to the account.
func (c *BedrockCatalog) ListModels(ctx context.Context) ([]string, error) {
	out, err := c.client.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	if err != nil {
		return nil, fmt.Errorf("list foundation models: %w", err)
	}
	ids := make([]string, 0, len(out.ModelSummaries))
	for _, m := range out.ModelSummaries {
		id := aws.ToString(m.ModelId)
		if id == "" {
			id = "Unknown"
		}
		ids = append(ids, id)
	}
	return ids, nil
}
