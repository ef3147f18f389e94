//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"short-story-api/internal/application/story"
	"short-story-api/internal/config"
	"short-story-api/internal/infrastructure/llm"
	"short-story-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 HTTP 应用
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		StorySet,
		RedisSet,
		ProvideRouterDependencies,
		router.New,
	)
	return nil, nil, nil
}

// StorySet 故事生成链路
var StorySet = wire.NewSet(
	ProvideChatModelFactory,
	wire.Bind(new(story.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideGenerationSettings,
	story.NewChatGenerator,
	wire.Bind(new(story.Generator), new(*story.ChatGenerator)),
	ProvideStoryService,
)

// RedisSet 限流依赖（可选）
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideRateLimiter,
	ProvideRedisHealthChecker,
)
