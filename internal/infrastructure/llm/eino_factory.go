// Package llm 提供 LLM ChatModel 客户端的构建与缓存
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"short-story-api/internal/config"
	apperrors "short-story-api/pkg/errors"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例（按 provider 惰性创建）
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, apperrors.ErrLLMProviderError.WithError(fmt.Errorf("provider %s not found in LLM config", name))
	}

	chatModel, err := newChatModel(ctx, providerCfg)
	if err != nil {
		return nil, apperrors.ErrLLMProviderError.WithError(fmt.Errorf("failed to create chat model for %s: %w", name, err))
	}

	f.models[name] = chatModel
	return chatModel, nil
}

func newChatModel(ctx context.Context, p config.ProviderConfig) (model.BaseChatModel, error) {
	switch p.Type {
	case config.ProviderTypeAzure:
		return NewAzureChatModel(p)
	case "", config.ProviderTypeOpenAI:
		// Mistral 等 OpenAI 兼容接口
		cfg := &openai.ChatModelConfig{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.Timeout,
		}
		if p.MaxTokens > 0 {
			cfg.MaxTokens = ptrInt(p.MaxTokens)
		}
		if p.Temperature > 0 {
			cfg.Temperature = ptrFloat32(float32(p.Temperature))
		}
		return openai.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider type %q", p.Type)
	}
}

func ptrFloat32(f float32) *float32 {
	return &f
}

func ptrInt(i int) *int {
	return &i
}
