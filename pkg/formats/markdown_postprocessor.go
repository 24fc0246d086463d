package formats

import (
	"strings"

	"go.uber.org/zap"
)

// MarkdownPostProcessor 用于修复合并后的翻译 Markdown：先去重，再规范化
type MarkdownPostProcessor struct {
	logger *zap.Logger
}

// NewMarkdownPostProcessor 创建一个新的 Markdown 后处理器
func NewMarkdownPostProcessor(logger *zap.Logger) *MarkdownPostProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkdownPostProcessor{logger: logger}
}

// ProcessMarkdown 处理翻译后的 Markdown 文本
func (p *MarkdownPostProcessor) ProcessMarkdown(text string) string {
	before := strings.Count(text, "\n")

	deduped := Deduplicate(text)
	afterDedup := strings.Count(deduped, "\n")

	normalized := Normalize(deduped)

	p.logger.Debug("Markdown 后处理完成",
		zap.Int("lines_before", before),
		zap.Int("lines_removed_by_dedup", before-afterDedup),
		zap.Int("lines_after", strings.Count(normalized, "\n")))

	return normalized
}
