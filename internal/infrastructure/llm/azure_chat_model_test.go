package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-story-api/internal/config"
	apperrors "short-story-api/pkg/errors"
)

type fakeAzureClient struct {
	body azopenai.ChatCompletionsOptions
	resp azopenai.GetChatCompletionsResponse
	err  error
}

func (f *fakeAzureClient) GetChatCompletions(ctx context.Context, body azopenai.ChatCompletionsOptions, _ *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error) {
	f.body = body
	return f.resp, f.err
}

func azureResponse(content string) azopenai.GetChatCompletionsResponse {
	var resp azopenai.GetChatCompletionsResponse
	resp.Choices = []azopenai.ChatChoice{
		{Message: &azopenai.ChatResponseMessage{Content: to.Ptr(content)}},
	}
	resp.Usage = &azopenai.CompletionsUsage{
		PromptTokens:     to.Ptr(int32(20)),
		CompletionTokens: to.Ptr(int32(80)),
		TotalTokens:      to.Ptr(int32(100)),
	}
	return resp
}

var azureProvider = config.ProviderConfig{
	Type:        config.ProviderTypeAzure,
	Deployment:  "gpt-4o-mini",
	MaxTokens:   600,
	Temperature: 0.8,
}

func TestAzureChatModel_Generate(t *testing.T) {
	client := &fakeAzureClient{resp: azureResponse("Once upon a time.")}
	m := newAzureChatModel(client, azureProvider)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are a storyteller."),
		schema.UserMessage("Write a story about: owls"),
	}, model.WithMaxTokens(300))
	require.NoError(t, err)

	assert.Equal(t, "Once upon a time.", msg.Content)
	assert.Equal(t, schema.Assistant, msg.Role)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, 100, msg.ResponseMeta.Usage.TotalTokens)

	require.NotNil(t, client.body.DeploymentName)
	assert.Equal(t, "gpt-4o-mini", *client.body.DeploymentName)
	require.NotNil(t, client.body.MaxTokens)
	assert.Equal(t, int32(300), *client.body.MaxTokens)
	require.NotNil(t, client.body.Temperature)
	assert.InDelta(t, 0.8, *client.body.Temperature, 1e-6)
	assert.Len(t, client.body.Messages, 2)
}

func TestAzureChatModel_Errors(t *testing.T) {
	upstream := errors.New("401 Unauthorized")
	m := newAzureChatModel(&fakeAzureClient{err: upstream}, azureProvider)
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.ErrorIs(t, err, upstream)

	m = newAzureChatModel(&fakeAzureClient{}, azureProvider)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.ErrorContains(t, err, "no completion")

	_, err = m.Generate(context.Background(), []*schema.Message{schema.AssistantMessage("prior", nil)})
	assert.ErrorContains(t, err, "unsupported message role")

	_, err = m.Stream(context.Background(), nil)
	assert.ErrorIs(t, err, ErrStreamingDisabled)
}

func TestEinoFactory_UnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.LLMConfig{
		DefaultProvider: "mistral",
		Providers:       map[string]config.ProviderConfig{},
	})

	_, err := f.Get(context.Background(), "")
	assert.ErrorContains(t, err, "provider mistral not found")

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeLLMProviderError, appErr.Code)
	assert.Equal(t, "provider mistral not found in LLM config", appErr.Describe())
}

func TestEinoFactory_CachesModels(t *testing.T) {
	f := NewEinoFactory(&config.LLMConfig{
		DefaultProvider: "azure",
		Providers: map[string]config.ProviderConfig{
			"azure": {
				Type:       config.ProviderTypeAzure,
				APIKey:     "k",
				BaseURL:    "https://example.openai.azure.com",
				Deployment: "gpt-4o-mini",
			},
			"bogus": {Type: "carrier-pigeon"},
		},
	})

	first, err := f.Get(context.Background(), "")
	require.NoError(t, err)
	second, err := f.Get(context.Background(), "azure")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = f.Get(context.Background(), "bogus")
	assert.ErrorContains(t, err, "unknown provider type")
	assert.True(t, apperrors.IsAppError(err))
}
