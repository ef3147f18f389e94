// Package service 提供跨层共享的领域服务辅助函数
package service

import (
	"context"
	"strings"
)

// LLMCallInfo 描述一次 LLM 调用的归属（用于指标、追踪标签）
type LLMCallInfo struct {
	Workflow string
	Provider string
}

type llmCallInfoKey struct{}

const unknownLabel = "unknown"

// WithWorkflowProvider 将工作流名与 provider 写入 context
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	info := LLMCallInfo{
		Workflow: strings.TrimSpace(workflow),
		Provider: strings.TrimSpace(provider),
	}
	return context.WithValue(ctx, llmCallInfoKey{}, info)
}

// LLMCallInfoFromContext 读取调用归属，缺失字段以 "unknown" 填充
func LLMCallInfoFromContext(ctx context.Context) LLMCallInfo {
	info := LLMCallInfo{Workflow: unknownLabel, Provider: unknownLabel}
	if ctx == nil {
		return info
	}
	v, ok := ctx.Value(llmCallInfoKey{}).(LLMCallInfo)
	if !ok {
		return info
	}
	if v.Workflow != "" {
		info.Workflow = v.Workflow
	}
	if v.Provider != "" {
		info.Provider = v.Provider
	}
	return info
}
