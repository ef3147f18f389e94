// Package storyutil 提供故事文本的结构约束处理（段落数、字数截断）。
// 所有函数均为纯函数：无 I/O、无共享状态，任意输入都不会失败。
package storyutil

import (
	"regexp"
	"strings"
)

// Ellipsis 截断标记
const Ellipsis = "..."

// ParagraphSeparator 段落分隔符（空行）
const ParagraphSeparator = "\n\n"

// 两个及以上连续换行视为一个段落边界
var paragraphBreakRe = regexp.MustCompile(`\n{2,}`)

// Mode 约束模式
type Mode string

const (
	ModeParagraphs Mode = "paragraphs"
	ModeWords      Mode = "words"
)

// Limits 结构约束
type Limits struct {
	Mode              Mode
	Paragraphs        int
	WordsPerParagraph int
	MaxWords          int
}

// Enforce 按模式对文本施加约束
func Enforce(text string, limits Limits) string {
	if limits.Mode == ModeWords {
		return TruncateToNWords(text, limits.MaxWords)
	}
	return EnforceParagraphConstraints(text, limits.Paragraphs, limits.WordsPerParagraph)
}

// TruncateToNWords 将文本截断到最多 n 个词。
// 未超限时仅去除首尾空白；超限时取前 n 个词以单空格连接，
// 若结尾不是 . ! ? 则追加省略号。
func TruncateToNWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.TrimSpace(text)
	}
	return joinTruncated(words, n)
}

// EnforceParagraphConstraints 将文本整理为恰好 paragraphs 段，每段最多 wordsPerParagraph 个词。
// 多余段落丢弃，不足时在末尾补空段；段内空白统一折叠为单空格。
func EnforceParagraphConstraints(text string, paragraphs, wordsPerParagraph int) string {
	if paragraphs <= 0 {
		return ""
	}

	kept := SplitParagraphs(text)
	if len(kept) > paragraphs {
		kept = kept[:paragraphs]
	}

	out := make([]string, paragraphs)
	for i, p := range kept {
		words := strings.Fields(p)
		if len(words) > wordsPerParagraph {
			out[i] = joinTruncated(words, wordsPerParagraph)
		} else {
			out[i] = strings.Join(words, " ")
		}
	}
	return strings.Join(out, ParagraphSeparator)
}

// SplitParagraphs 按空行切分段落，去除首尾空白并丢弃空段
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := paragraphBreakRe.Split(text, -1)

	paras := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// CountWords 统计空白分隔的词数
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func joinTruncated(words []string, n int) string {
	if n <= 0 {
		return ""
	}
	s := strings.Join(words[:n], " ")
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + Ellipsis
}
