package formats

import (
	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
	"go.uber.org/zap"
)

// PreformatMarkdown 在分块前用 markdownfmt 统一源文档的格式，
// 使标题、列表和表格在切分时都落在规整的行边界上。格式化失败时返回原文。
func PreformatMarkdown(name string, content string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []markdown.Option{
		markdown.WithCodeFormatters(markdown.GoCodeFormatter),
	}

	res, err := markdownfmt.Process(name, []byte(content), opts...)
	if err != nil {
		logger.Warn("格式化 Markdown 失败，使用原文", zap.String("file", name), zap.Error(err))
		return content
	}

	logger.Debug("格式化 Markdown 完成",
		zap.String("file", name),
		zap.Int("size_before", len(content)),
		zap.Int("size_after", len(res)))
	return string(res)
}
