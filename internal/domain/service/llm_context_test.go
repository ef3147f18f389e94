package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMCallInfo(t *testing.T) {
	info := LLMCallInfoFromContext(context.Background())
	assert.Equal(t, LLMCallInfo{Workflow: "unknown", Provider: "unknown"}, info)

	ctx := WithWorkflowProvider(context.Background(), " story_generate ", "")
	info = LLMCallInfoFromContext(ctx)
	assert.Equal(t, "story_generate", info.Workflow)
	assert.Equal(t, "unknown", info.Provider)

	ctx = WithWorkflowProvider(ctx, "story_generate", "mistral")
	assert.Equal(t, "mistral", LLMCallInfoFromContext(ctx).Provider)
}
