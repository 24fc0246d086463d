package pipeline

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// fileSeparator 多个文件之间的水平分隔线
const fileSeparator = "\n---\n"

var titlePattern = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// Assembler 把成功的文件译文合并为一个文档
type Assembler struct {
	targetCode string
	post       *formats.MarkdownPostProcessor
	logger     *zap.Logger
}

// NewAssembler 创建合并器，targetCode 决定署名行的语言
func NewAssembler(targetCode string, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		targetCode: targetCode,
		post:       formats.NewMarkdownPostProcessor(logger),
		logger:     logger,
	}
}

// Assemble 按原始顺序合并状态为 ok 的文件，开头加署名行，文件之间插入分隔线，
// 最后去重并规范化。没有成功的文件时返回 ErrNoTranslations。
func (a *Assembler) Assemble(results []FileResult) (string, error) {
	var ok []FileResult
	for _, r := range results {
		if r.OK() {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return "", translation.ErrNoTranslations
	}

	parts := []string{"> " + config.Attribution(a.targetCode) + "\n"}
	for i, r := range ok {
		if i > 0 {
			parts = append(parts, fileSeparator)
		}
		parts = append(parts, r.Text)
	}

	a.logger.Debug("合并译文", zap.Int("files", len(ok)), zap.Int("skipped", len(results)-len(ok)))
	return a.post.ProcessMarkdown(strings.Join(parts, "\n\n")), nil
}

// ExtractTitle 返回第一个一级标题，没有时返回 fallback
func ExtractTitle(md, fallback string) string {
	if m := titlePattern.FindStringSubmatch(md); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	return fallback
}
