package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"short-story-api/internal/config"
)

const azureChatModelType = "AzureOpenAI"

// ErrStreamingDisabled 故事生成只走非流式调用
var ErrStreamingDisabled = errors.New("streaming is not supported by this chat model")

// azureChatClient azopenai.Client 的最小子集，便于测试替换
type azureChatClient interface {
	GetChatCompletions(ctx context.Context, body azopenai.ChatCompletionsOptions, options *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error)
}

// AzureChatModel 将 Azure OpenAI 部署适配为 Eino BaseChatModel
type AzureChatModel struct {
	client      azureChatClient
	deployment  string
	maxTokens   int
	temperature float32
}

// NewAzureChatModel 使用 API Key 创建 Azure OpenAI ChatModel
func NewAzureChatModel(p config.ProviderConfig) (*AzureChatModel, error) {
	var opts *azopenai.ClientOptions
	if p.Timeout > 0 {
		opts = &azopenai.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Transport: &http.Client{Timeout: p.Timeout},
			},
		}
	}
	client, err := azopenai.NewClientWithKeyCredential(p.BaseURL, azcore.NewKeyCredential(p.APIKey), opts)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	return newAzureChatModel(client, p), nil
}

func newAzureChatModel(client azureChatClient, p config.ProviderConfig) *AzureChatModel {
	return &AzureChatModel{
		client:      client,
		deployment:  p.Deployment,
		maxTokens:   p.MaxTokens,
		temperature: float32(p.Temperature),
	}
}

// GetType 实现 components.Typer
func (m *AzureChatModel) GetType() string {
	return azureChatModelType
}

// IsCallbacksEnabled 回调由本组件自行触发
func (m *AzureChatModel) IsCallbacksEnabled() bool {
	return true
}

// Generate 调用 Chat Completions，返回第一条 choice
func (m *AzureChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (outMsg *schema.Message, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, m.GetType(), components.ComponentOfChatModel)

	base := &model.Options{Model: to.Ptr(m.deployment)}
	if m.maxTokens > 0 {
		base.MaxTokens = to.Ptr(m.maxTokens)
	}
	if m.temperature > 0 {
		base.Temperature = to.Ptr(m.temperature)
	}
	options := model.GetCommonOptions(base, opts...)

	cbConfig := &model.Config{Model: m.deployment}
	if options.MaxTokens != nil {
		cbConfig.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		cbConfig.Temperature = *options.Temperature
	}
	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: input, Config: cbConfig})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	messages, err := toAzureMessages(input)
	if err != nil {
		return nil, err
	}

	body := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(m.deployment),
		Messages:       messages,
	}
	if options.MaxTokens != nil {
		body.MaxTokens = to.Ptr(int32(*options.MaxTokens))
	}
	if options.Temperature != nil {
		body.Temperature = options.Temperature
	}

	resp, err := m.client.GetChatCompletions(ctx, body, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("no completion received from LLM")
	}

	outMsg = schema.AssistantMessage(*resp.Choices[0].Message.Content, nil)
	usage := toTokenUsage(resp.Usage)
	if usage != nil {
		outMsg.ResponseMeta = &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
				TotalTokens:      usage.TotalTokens,
			},
		}
	}

	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: outMsg, Config: cbConfig, TokenUsage: usage})
	return outMsg, nil
}

// Stream 未实现：故事生成固定使用非流式调用
func (m *AzureChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamingDisabled
}

func toAzureMessages(in []*schema.Message) ([]azopenai.ChatRequestMessageClassification, error) {
	out := make([]azopenai.ChatRequestMessageClassification, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, &azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(msg.Content),
			})
		case schema.User:
			out = append(out, &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(msg.Content),
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", strings.TrimSpace(string(msg.Role)))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no messages to send")
	}
	return out, nil
}

func toTokenUsage(u *azopenai.CompletionsUsage) *model.TokenUsage {
	if u == nil {
		return nil
	}
	usage := &model.TokenUsage{}
	if u.PromptTokens != nil {
		usage.PromptTokens = int(*u.PromptTokens)
	}
	if u.CompletionTokens != nil {
		usage.CompletionTokens = int(*u.CompletionTokens)
	}
	if u.TotalTokens != nil {
		usage.TotalTokens = int(*u.TotalTokens)
	}
	return usage
}
