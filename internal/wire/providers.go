// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	"short-story-api/internal/application/story"
	"short-story-api/internal/config"
	"short-story-api/internal/infrastructure/llm"
	"short-story-api/internal/infrastructure/persistence/redis"
	"short-story-api/internal/interfaces/http/handler"
	"short-story-api/internal/interfaces/http/middleware"
	"short-story-api/internal/interfaces/http/router"
	"short-story-api/pkg/logger"
)

// ProvideChatModelFactory 提供 Eino ChatModel 工厂
func ProvideChatModelFactory(cfg *config.Config) *llm.EinoFactory {
	return llm.NewEinoFactory(&cfg.LLM)
}

// ProvideGenerationSettings 由默认 provider 与故事配置组装生成参数
func ProvideGenerationSettings(cfg *config.Config) (story.GenerationSettings, error) {
	p, ok := cfg.LLM.DefaultProviderConfig()
	if !ok {
		return story.GenerationSettings{}, fmt.Errorf("llm provider not found: %s", cfg.LLM.DefaultProvider)
	}

	settings := story.GenerationSettings{
		Provider:     cfg.LLM.DefaultProvider,
		Model:        p.Model,
		SystemPrompt: cfg.Story.SystemPrompt,
		Limits:       story.LimitsFromConfig(cfg.Story),
	}
	if p.Temperature > 0 {
		t := float32(p.Temperature)
		settings.Temperature = &t
	}
	if p.MaxTokens > 0 {
		n := p.MaxTokens
		settings.MaxTokens = &n
	}
	return settings, nil
}

// ProvideStoryService 提供故事生成服务
func ProvideStoryService(gen story.Generator, cfg *config.Config) *story.Service {
	return story.NewService(gen, story.LimitsFromConfig(cfg.Story), cfg.Story.GenerationTimeout)
}

// ProvideRedisClient 仅在启用限流时连接 Redis，否则返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Security.RateLimit.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, &cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Error(ctx, "failed to close redis client", err)
		}
	}, nil
}

// ProvideRateLimiter Redis 未启用时返回 nil（不限流）
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideRedisHealthChecker Redis 未启用时返回 nil（就绪检查跳过）
func ProvideRedisHealthChecker(client *redis.Client) handler.HealthChecker {
	if client == nil {
		return nil
	}
	return client
}

// ProvideRouterDependencies 组装路由依赖
func ProvideRouterDependencies(svc *story.Service, limiter middleware.RateLimiter, checker handler.HealthChecker) router.Dependencies {
	return router.Dependencies{
		Story:       svc,
		RateLimiter: limiter,
		Redis:       checker,
	}
}
