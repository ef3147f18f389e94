package story

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"short-story-api/internal/application/story/storyutil"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识
type PromptID string

const (
	PromptStoryParagraphsV1 PromptID = "story_paragraphs_v1"
	PromptStoryWordsV1      PromptID = "story_words_v1"
)

// PromptRegistry 懒加载并缓存 Eino ChatTemplate
type PromptRegistry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

// NewPromptRegistry 创建模板注册表
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 返回指定模板
func (r *PromptRegistry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, err := resolveSystemTemplate(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText("templates/story.user.txt")
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// FormatStoryMessages 渲染故事生成消息
func (r *PromptRegistry) FormatStoryMessages(ctx context.Context, systemPrompt, prompt string, limits storyutil.Limits) ([]*schema.Message, error) {
	id := PromptStoryParagraphsV1
	if limits.Mode == storyutil.ModeWords {
		id = PromptStoryWordsV1
	}
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"system_prompt":       strings.TrimSpace(systemPrompt),
		"prompt":              strings.TrimSpace(prompt),
		"paragraphs":          limits.Paragraphs,
		"words_per_paragraph": limits.WordsPerParagraph,
		"max_words":           limits.MaxWords,
	}
	return tpl.Format(ctx, vars)
}

func resolveSystemTemplate(id PromptID) (string, error) {
	switch id {
	case PromptStoryParagraphsV1:
		return "templates/story_paragraphs.system.txt", nil
	case PromptStoryWordsV1:
		return "templates/story_words.system.txt", nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
