package knowledgebase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

type MockAgentRuntime struct {
	mock.Mock
}

func (m *MockAgentRuntime) RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bedrockagentruntime.RetrieveAndGenerateOutput), args.Error(1)
}

func s3Reference(uri, text string, stars any) agenttypes.RetrievedReference {
	ref := agenttypes.RetrievedReference{
		Location: &agenttypes.RetrievalResultLocation{
			Type:       agenttypes.RetrievalResultLocationTypeS3,
			S3Location: &agenttypes.RetrievalResultS3Location{Uri: aws.String(uri)},
		},
		Content: &agenttypes.RetrievalResultContent{Text: aws.String(text)},
	}
	if stars != nil {
		ref.Metadata = map[string]document.Interface{ratingMetadata: document.NewLazyDocument(stars)}
	}
	return ref
}

func textCitation(text string, refs ...agenttypes.RetrievedReference) agenttypes.Citation {
	return agenttypes.Citation{
		GeneratedResponsePart: &agenttypes.GeneratedResponsePart{
			TextResponsePart: &agenttypes.TextResponsePart{Text: aws.String(text)},
		},
		RetrievedReferences: refs,
	}
}

func TestBedrockRetriever_RetrieveAndGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("converts citations", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		out := &bedrockagentruntime.RetrieveAndGenerateOutput{
			Citations: []agenttypes.Citation{
				textCitation("Great food.", s3Reference("s3://reviews/1", "Loved the pasteis", 5)),
				textCitation("Nice views.", s3Reference("s3://reviews/2", "Sunset at Miradouro", "4")),
			},
		}
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(out, nil).Once()

		groups, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "Great food.", groups[0].GeneratedText)
		assert.Equal(t, []types.Citation{{URI: "s3://reviews/1", Rating: 5, Text: "Loved the pasteis"}}, groups[0].References)
		assert.Equal(t, 4, groups[1].References[0].Rating)
		client.AssertExpectations(t)
	})

	t.Run("filters by city and sends the template", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		client.On("RetrieveAndGenerate", mock.Anything, mock.MatchedBy(func(in *bedrockagentruntime.RetrieveAndGenerateInput) bool {
			kb := in.RetrieveAndGenerateConfiguration.KnowledgeBaseConfiguration
			filter, ok := kb.RetrievalConfiguration.VectorSearchConfiguration.Filter.(*agenttypes.RetrievalFilterMemberEquals)
			return ok &&
				aws.ToString(in.Input.Text) == Prompts[1] &&
				aws.ToString(kb.KnowledgeBaseId) == "KB123" &&
				aws.ToString(kb.ModelArn) == "arn:model" &&
				aws.ToString(filter.Value.Key) == cityFilterKey &&
				aws.ToString(kb.GenerationConfiguration.PromptTemplate.TextPromptTemplate) == groundedPromptTemplate
		})).Return(&bedrockagentruntime.RetrieveAndGenerateOutput{}, nil).Once()

		groups, err := retriever.RetrieveAndGenerate(ctx, "Porto", Prompts[1])

		require.NoError(t, err)
		assert.Empty(t, groups)
		client.AssertExpectations(t)
	})

	t.Run("missing rating is malformed", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		out := &bedrockagentruntime.RetrieveAndGenerateOutput{
			Citations: []agenttypes.Citation{textCitation("Text.", s3Reference("s3://reviews/1", "Review", nil))},
		}
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(out, nil).Once()

		groups, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrMalformedCitation)
		assert.Nil(t, groups)
	})

	t.Run("fractional rating is malformed", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		out := &bedrockagentruntime.RetrieveAndGenerateOutput{
			Citations: []agenttypes.Citation{textCitation("Text.", s3Reference("s3://reviews/1", "Review", 4.9))},
		}
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(out, nil).Once()

		groups, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		assert.ErrorIs(t, err, types.ErrMalformedCitation)
		assert.Nil(t, groups)
	})

	t.Run("missing location is malformed", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		ref := s3Reference("s3://reviews/1", "Review", 3)
		ref.Location = nil
		out := &bedrockagentruntime.RetrieveAndGenerateOutput{
			Citations: []agenttypes.Citation{textCitation("Text.", ref)},
		}
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(out, nil).Once()

		_, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		assert.ErrorIs(t, err, types.ErrMalformedCitation)
	})

	t.Run("throttling", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).
			Return(nil, &agenttypes.ThrottlingException{Message: aws.String("slow down")}).Once()

		_, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		assert.ErrorIs(t, err, ErrThrottled)
	})

	t.Run("service error", func(t *testing.T) {
		client := new(MockAgentRuntime)
		retriever := NewBedrockRetriever(client, "KB123", "arn:model")
		svcErr := errors.New("access denied")
		client.On("RetrieveAndGenerate", mock.Anything, mock.Anything).Return(nil, svcErr).Once()

		_, err := retriever.RetrieveAndGenerate(ctx, "Lisbon", Prompts[0])

		assert.ErrorIs(t, err, svcErr)
		assert.NotErrorIs(t, err, ErrThrottled)
	})
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  int
		valid bool
	}{
		{"float", 4.0, 4, true},
		{"int", 3, 3, true},
		{"int64", int64(2), 2, true},
		{"numeric string", " 5 ", 5, true},
		{"decimal string", "4.0", 4, true},
		{"fractional float", 4.9, 0, false},
		{"fractional string", "4.5", 0, false},
		{"fractional json number", json.Number("3.2"), 0, false},
		{"word", "five", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRating(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
