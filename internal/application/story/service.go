// Package story 实现短篇故事生成：校验 prompt，调用外部生成器，再对结果施加结构约束。
package story

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"short-story-api/internal/application/story/storyutil"
	"short-story-api/internal/config"
	apperrors "short-story-api/pkg/errors"
	"short-story-api/pkg/logger"
	"short-story-api/pkg/metrics"
	"short-story-api/pkg/tracer"
)

// Result 一次生成的结果
type Result struct {
	Story      string
	RawWords   int
	Words      int
	Paragraphs int
	Mode       storyutil.Mode
}

// Service 故事生成服务，构造后只读，可并发使用
type Service struct {
	generator Generator
	limits    storyutil.Limits
	timeout   time.Duration
}

// NewService 创建故事生成服务
func NewService(generator Generator, limits storyutil.Limits, timeout time.Duration) *Service {
	return &Service{
		generator: generator,
		limits:    limits,
		timeout:   timeout,
	}
}

// LimitsFromConfig 将配置转换为约束参数
func LimitsFromConfig(cfg config.StoryConfig) storyutil.Limits {
	mode := storyutil.ModeParagraphs
	if cfg.Mode == config.StoryModeWords {
		mode = storyutil.ModeWords
	}
	return storyutil.Limits{
		Mode:              mode,
		Paragraphs:        cfg.Paragraphs,
		WordsPerParagraph: cfg.WordsPerParagraph,
		MaxWords:          cfg.MaxWords,
	}
}

// Limits 返回当前约束
func (s *Service) Limits() storyutil.Limits {
	return s.limits
}

// Generate 生成并约束故事。
// 空 prompt 返回 ErrEmptyPrompt 且不调用生成器；生成器失败包装为 CodeLLMCallFailed，不重试。
func (s *Service) Generate(ctx context.Context, prompt string) (*Result, error) {
	mode := string(s.limits.Mode)

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		metrics.StoryGenerationTotal.WithLabelValues(mode, "invalid").Inc()
		return nil, apperrors.ErrEmptyPrompt
	}

	ctx, span := tracer.Start(ctx, "story.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("story.mode", mode),
		attribute.Int("story.prompt_length", len(prompt)),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prompt)
	metrics.StoryGenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues(mode, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		args := []any{
			"mode", mode,
			"prompt_length", len(prompt),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		// 未经 TraceContext 中间件注入时补充 trace_id
		if ctx.Value(logger.TraceIDKey) == nil {
			if traceID := tracer.TraceID(ctx); traceID != "" {
				args = append(args, "trace_id", traceID)
			}
		}
		logger.Error(ctx, "story generation failed", err, args...)
		// provider 构建失败等已分类错误原样返回
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.ErrLLMCallFailed.WithError(err)
	}

	story := storyutil.Enforce(raw, s.limits)
	result := &Result{
		Story:    story,
		RawWords: storyutil.CountWords(raw),
		Words:    storyutil.CountWords(story),
		Mode:     s.limits.Mode,
	}
	if s.limits.Mode == storyutil.ModeParagraphs {
		result.Paragraphs = s.limits.Paragraphs
	}

	s.recordConstraintMetrics(raw, result)
	metrics.StoryGenerationTotal.WithLabelValues(mode, "success").Inc()
	span.SetAttributes(
		attribute.Int("story.raw_words", result.RawWords),
		attribute.Int("story.words", result.Words),
	)
	logger.Debug(ctx, "story generated",
		"mode", mode,
		"raw_words", result.RawWords,
		"words", result.Words,
	)
	return result, nil
}

func (s *Service) recordConstraintMetrics(raw string, result *Result) {
	mode := string(s.limits.Mode)
	metrics.StoryWordCount.WithLabelValues("raw").Observe(float64(result.RawWords))
	metrics.StoryWordCount.WithLabelValues("constrained").Observe(float64(result.Words))

	if s.limits.Mode == storyutil.ModeWords {
		if result.RawWords > s.limits.MaxWords {
			metrics.StoryTruncationTotal.WithLabelValues(mode, "words").Inc()
		}
		return
	}

	paras := storyutil.SplitParagraphs(raw)
	switch {
	case len(paras) > s.limits.Paragraphs:
		metrics.StoryTruncationTotal.WithLabelValues(mode, "paragraphs_dropped").Inc()
		paras = paras[:s.limits.Paragraphs]
	case len(paras) < s.limits.Paragraphs:
		metrics.StoryTruncationTotal.WithLabelValues(mode, "paragraphs_padded").Inc()
	}
	for _, p := range paras {
		if storyutil.CountWords(p) > s.limits.WordsPerParagraph {
			metrics.StoryTruncationTotal.WithLabelValues(mode, "words").Inc()
			break
		}
	}
}
