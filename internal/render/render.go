package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 输出格式
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
)

// Options 渲染参数
type Options struct {
	Title string
	// Lang 目标语言代码，写入 HTML 的 lang 属性
	Lang string
	// Now 生成页脚日期，为空时使用 time.Now
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Renderer 把规范化后的 Markdown 渲染为一种输出格式
type Renderer interface {
	Format() string
	Render(md string, opts Options, w io.Writer) error
}

// availability 由依赖外部资源的渲染器实现，返回错误时跳过该格式
type availability interface {
	Available() error
}

// OutputFile 生成的文件
type OutputFile struct {
	Format string
	Path   string
}

// FormatError 单个格式的渲染错误
type FormatError struct {
	Format string
	Err    error
}

func (e FormatError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToUpper(e.Format), e.Err)
}

// Result 一次生成的结果，渲染错误不会中断其他格式
type Result struct {
	Files   []OutputFile
	Skipped []string
	Errors  []FormatError
}

// Generator 按格式分派渲染器并写出文件
type Generator struct {
	renderers map[string]Renderer
	logger    *zap.Logger
}

// NewGenerator 创建包含全部内置渲染器的生成器
func NewGenerator(fontDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{renderers: make(map[string]Renderer), logger: logger}
	g.Register(markdownRenderer{})
	g.Register(NewHTMLRenderer())
	g.Register(NewPDFRenderer(fontDir))
	g.Register(NewDOCXRenderer())
	return g
}

// Register 注册或替换一个渲染器
func (g *Generator) Register(r Renderer) {
	g.renderers[r.Format()] = r
}

// Generate 把 md 渲染为 formats 中的每种格式，文件写到 dir/base.<format>
func (g *Generator) Generate(md, dir, base string, formats []string, opts Options) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	res := &Result{}
	for _, format := range formats {
		r, ok := g.renderers[format]
		if !ok {
			res.Errors = append(res.Errors, FormatError{Format: format, Err: fmt.Errorf("unsupported format")})
			continue
		}
		if a, ok := r.(availability); ok {
			if err := a.Available(); err != nil {
				g.logger.Warn("跳过输出格式", zap.String("format", format), zap.Error(err))
				res.Skipped = append(res.Skipped, format)
				continue
			}
		}

		path := filepath.Join(dir, base+"."+format)
		if err := writeFile(path, func(w io.Writer) error { return r.Render(md, opts, w) }); err != nil {
			g.logger.Error("生成输出失败", zap.String("format", format), zap.Error(err))
			res.Errors = append(res.Errors, FormatError{Format: format, Err: err})
			continue
		}
		g.logger.Info("生成输出", zap.String("format", format), zap.String("path", path))
		res.Files = append(res.Files, OutputFile{Format: format, Path: path})
	}
	return res, nil
}

// writeFile 写入失败时删除不完整的文件
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// BaseName 返回输出文件的基础名：显式指定的名称，单个输入时为 <stem>_translated，
// 否则为 translated
func BaseName(output string, inputs []string) string {
	if output = strings.TrimSpace(output); output != "" {
		ext := strings.ToLower(filepath.Ext(output))
		for _, f := range []string{FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX} {
			if ext == "."+f {
				return strings.TrimSuffix(output, filepath.Ext(output))
			}
		}
		return output
	}
	if len(inputs) == 1 {
		return Stem(inputs[0]) + "_translated"
	}
	return "translated"
}

// Stem 返回不含目录和扩展名的文件名
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type markdownRenderer struct{}

func (markdownRenderer) Format() string { return FormatMarkdown }

func (markdownRenderer) Render(md string, _ Options, w io.Writer) error {
	_, err := io.WriteString(w, md)
	return err
}
