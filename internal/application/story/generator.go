package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"short-story-api/internal/application/story/storyutil"
	llmctx "short-story-api/internal/domain/service"
)

const workflowStoryGenerate = "story_generate"

// Generator 外部故事生成器（port）：输入 prompt，输出原始故事文本
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatModelFactory 按 provider 名称提供 Eino ChatModel，由 infrastructure/llm 实现
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// GenerationSettings 启动时固定的生成参数
type GenerationSettings struct {
	Provider     string
	Model        string
	SystemPrompt string
	Temperature  *float32
	MaxTokens    *int
	Limits       storyutil.Limits
}

// ErrEmptyCompletion 上游返回空内容
var ErrEmptyCompletion = errors.New("empty completion from llm")

// ChatGenerator 基于 Eino ChatModel 的 Generator 实现（非流式）
type ChatGenerator struct {
	factory  ChatModelFactory
	prompts  *PromptRegistry
	settings GenerationSettings
}

// NewChatGenerator 创建 ChatGenerator
func NewChatGenerator(factory ChatModelFactory, settings GenerationSettings) *ChatGenerator {
	return &ChatGenerator{
		factory:  factory,
		prompts:  NewPromptRegistry(),
		settings: settings,
	}
}

// Generate 调用 ChatModel 生成故事，返回第一条回复的文本
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}

	provider := strings.TrimSpace(g.settings.Provider)
	ctx = llmctx.WithWorkflowProvider(ctx, workflowStoryGenerate, provider)

	chatModel, err := g.factory.Get(ctx, provider)
	if err != nil {
		return "", err
	}

	msgs, err := g.prompts.FormatStoryMessages(ctx, g.settings.SystemPrompt, prompt, g.settings.Limits)
	if err != nil {
		return "", fmt.Errorf("format story prompt: %w", err)
	}

	outMsg, err := chatModel.Generate(ctx, msgs, g.modelOptions()...)
	if err != nil {
		return "", err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return outMsg.Content, nil
}

func (g *ChatGenerator) modelOptions() []model.Option {
	opts := make([]model.Option, 0, 3)
	if g.settings.Temperature != nil {
		opts = append(opts, model.WithTemperature(*g.settings.Temperature))
	}
	if g.settings.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*g.settings.MaxTokens))
	}
	if m := strings.TrimSpace(g.settings.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	return opts
}
