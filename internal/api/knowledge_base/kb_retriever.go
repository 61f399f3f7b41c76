package knowledgebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	smithydocument "github.com/aws/smithy-go/document"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// ErrThrottled means the retrieval service (or our own limiter in front of
// it) refused the call; the user should retry later.
var ErrThrottled = errors.New("knowledge base throttled")

const (
	cityFilterKey  = "City"
	ratingMetadata = "Stars"
)

// Retriever answers a question about one city from the review knowledge base.
type Retriever interface {
	RetrieveAndGenerate(ctx context.Context, city, question string) ([]types.CitationGroup, error)
}

// AgentRuntimeAPI is the part of *bedrockagentruntime.Client used here.
type AgentRuntimeAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

var _ Retriever = (*BedrockRetriever)(nil)

type BedrockRetriever struct {
	client          AgentRuntimeAPI
	knowledgeBaseID string
	modelArn        string
}

func NewBedrockRetriever(client AgentRuntimeAPI, knowledgeBaseID, modelArn string) *BedrockRetriever {
	return &BedrockRetriever{
		client:          client,
		knowledgeBaseID: knowledgeBaseID,
		modelArn:        modelArn,
	}
}

func (b *BedrockRetriever) RetrieveAndGenerate(ctx context.Context, city, question string) ([]types.CitationGroup, error) {
	out, err := b.client.RetrieveAndGenerate(ctx, b.input(city, question))
	if err != nil {
		var throttled *agenttypes.ThrottlingException
		if errors.As(err, &throttled) {
			return nil, fmt.Errorf("%w: %s", ErrThrottled, throttled.ErrorMessage())
		}
		return nil, fmt.Errorf("retrieve and generate: %w", err)
	}
	return citationGroups(out.Citations)
}

func (b *BedrockRetriever) input(city, question string) *bedrockagentruntime.RetrieveAndGenerateInput {
	return &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &agenttypes.RetrieveAndGenerateInput{Text: aws.String(question)},
		RetrieveAndGenerateConfiguration: &agenttypes.RetrieveAndGenerateConfiguration{
			Type: agenttypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &agenttypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(b.knowledgeBaseID),
				ModelArn:        aws.String(b.modelArn),
				RetrievalConfiguration: &agenttypes.KnowledgeBaseRetrievalConfiguration{
					VectorSearchConfiguration: &agenttypes.KnowledgeBaseVectorSearchConfiguration{
						Filter: &agenttypes.RetrievalFilterMemberEquals{
							Value: agenttypes.FilterAttribute{
								Key:   aws.String(cityFilterKey),
								Value: document.NewLazyDocument(city),
							},
						},
					},
				},
				GenerationConfiguration: &agenttypes.GenerationConfiguration{
					PromptTemplate: &agenttypes.PromptTemplate{
						TextPromptTemplate: aws.String(groundedPromptTemplate),
					},
				},
			},
		},
	}
}

// citationGroups validates every retrieved reference while converting it;
// the first malformed one aborts the whole answer.
func citationGroups(citations []agenttypes.Citation) ([]types.CitationGroup, error) {
	groups := make([]types.CitationGroup, 0, len(citations))
	for i, c := range citations {
		var g types.CitationGroup
		if c.GeneratedResponsePart != nil && c.GeneratedResponsePart.TextResponsePart != nil {
			g.GeneratedText = aws.ToString(c.GeneratedResponsePart.TextResponsePart.Text)
		}
		for j, ref := range c.RetrievedReferences {
			citation, err := types.NewCitation(referenceURI(ref), referenceRating(ref), referenceText(ref))
			if err != nil {
				return nil, fmt.Errorf("citation %d reference %d: %w", i, j, err)
			}
			g.References = append(g.References, citation)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func referenceURI(ref agenttypes.RetrievedReference) string {
	if ref.Location == nil {
		return ""
	}
	switch {
	case ref.Location.S3Location != nil:
		return aws.ToString(ref.Location.S3Location.Uri)
	case ref.Location.WebLocation != nil:
		return aws.ToString(ref.Location.WebLocation.Url)
	}
	return ""
}

func referenceText(ref agenttypes.RetrievedReference) string {
	if ref.Content == nil {
		return ""
	}
	return aws.ToString(ref.Content.Text)
}

func referenceRating(ref agenttypes.RetrievedReference) *int {
	doc, ok := ref.Metadata[ratingMetadata]
	if !ok || doc == nil {
		return nil
	}
	var v any
	if err := doc.UnmarshalSmithyDocument(&v); err != nil {
		return nil
	}
	rating, ok := parseRating(v)
	if !ok {
		return nil
	}
	return &rating
}

// parseRating accepts the numeric shapes review metadata shows up in:
// document numbers, JSON numbers and numeric strings such as "4" or "4.0".
// Fractional ratings like 4.5 are rejected.
func parseRating(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case smithydocument.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
