package eino

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	llmctx "short-story-api/internal/domain/service"
	"short-story-api/pkg/metrics"
)

func TestChatModelCallbackHandler_Success(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := llmctx.WithWorkflowProvider(context.Background(), "story_generate", "test-success")
	info := &einocb.RunInfo{Name: "chat", Type: "OpenAI"}

	calls := metrics.LLMCallTotal.WithLabelValues("story_generate", "test-success", "mistral-small", "success")
	tokens := metrics.LLMTokensUsed.WithLabelValues("story_generate", "test-success", "mistral-small", "completion")
	beforeCalls := testutil.ToFloat64(calls)
	beforeTokens := testutil.ToFloat64(tokens)

	ctx = h.OnStart(ctx, info, &model.CallbackInput{Config: &model.Config{Model: "mistral-small"}})
	assert.Greater(t, 1.0, elapsedSeconds(ctx))

	h.OnEnd(ctx, info, &model.CallbackOutput{
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 240},
	})

	assert.Equal(t, beforeCalls+1, testutil.ToFloat64(calls))
	assert.Equal(t, beforeTokens+240, testutil.ToFloat64(tokens))
}

func TestChatModelCallbackHandler_Error(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := llmctx.WithWorkflowProvider(context.Background(), "story_generate", "test-error")

	counter := metrics.LLMCallTotal.WithLabelValues("story_generate", "test-error", "mistral-tiny", "error")
	before := testutil.ToFloat64(counter)

	ctx = h.OnStart(ctx, nil, &model.CallbackInput{Config: &model.Config{Model: "mistral-tiny"}})
	h.OnError(ctx, nil, errors.New("quota exceeded"))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestChatModelCallbackHandler_SpanScope(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	h := newChatModelCallbackHandler()
	ctx := llmctx.WithWorkflowProvider(context.Background(), "story_generate", "test-span")
	ctx = h.OnStart(ctx, nil, &model.CallbackInput{Config: &model.Config{Model: "mistral-small"}})
	h.OnEnd(ctx, nil, &model.CallbackOutput{})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "llm.generate", spans[0].Name())
	assert.Equal(t, HandlerName, spans[0].InstrumentationScope().Name)
}
