// Package eino 注册 Eino 全局回调，为故事生成的 ChatModel 调用上报指标与追踪
package eino

import (
	"context"
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	"short-story-api/pkg/logger"
)

// HandlerName 回调名称，同时作为 LLM Span 的 tracer 名
const HandlerName = "short_story.chat_model"

var initOnce sync.Once

// Init 注册故事生成 ChatModel 回调（进程级一次），重复调用无副作用
func Init() {
	initOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
		logger.Info(context.Background(), "eino callbacks registered", "handler", HandlerName)
	})
}
