package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// 源文件格式
const (
	FormatMarkdown = "md"
	FormatDocx     = "docx"
	FormatPDF      = "pdf"
)

// Document 提取出的源文档
type Document struct {
	Path   string
	Name   string // 文件名，用于提示词和日志
	Format string
	Text   string
}

// Extractor 按扩展名选择提取方式
type Extractor struct {
	encoding string
	logger   *zap.Logger
}

// NewExtractor 创建提取器，encoding 为空时自动检测文本编码
func NewExtractor(encoding string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{encoding: encoding, logger: logger}
}

// Extract 读取文件并返回 Markdown 文本
func (e *Extractor) Extract(path string) (*Document, error) {
	doc := &Document{Path: path, Name: filepath.Base(path)}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown", ".txt":
		doc.Format = FormatMarkdown
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			doc.Text, err = DecodeText(data, e.encoding)
		}
	case ".docx", ".doc":
		if ext == ".doc" {
			e.logger.Warn(".doc 格式，尝试按 .docx 读取", zap.String("file", doc.Name))
		}
		doc.Format = FormatDocx
		e.logger.Info("从 DOCX 提取文本", zap.String("file", doc.Name))
		doc.Text, err = ExtractDocx(path)
	case ".pdf":
		doc.Format = FormatPDF
		e.logger.Info("从 PDF 提取文本", zap.String("file", doc.Name))
		doc.Text, err = ExtractPDF(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = strings.ReplaceAll(doc.Text, "\r\n", "\n")
	return doc, nil
}
