package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// FooterBrand 页脚中的项目名
const FooterBrand = "md-translate-ru"

// tocMinHeadings 一级和二级标题达到该数量时生成目录
const tocMinHeadings = 3

// HTMLRenderer 通过 goldmark 把 Markdown 转为独立的 HTML 页面
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer 创建 HTML 渲染器
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
				extension.Footnote,
				mathjax.MathJax,
				meta.Meta,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
				gmhtml.WithUnsafe(),
			),
		),
	}
}

func (r *HTMLRenderer) Format() string { return FormatHTML }

// Render 实现 Renderer
func (r *HTMLRenderer) Render(md string, opts Options, w io.Writer) error {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := r.md.Convert([]byte(md), &buf, parser.WithContext(ctx)); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}

	title := opts.Title
	if title == "" {
		if t, ok := meta.Get(ctx)["title"].(string); ok {
			title = t
		}
	}
	if title == "" {
		title = "Translation"
	}

	body, hasMath, err := postProcess(&buf)
	if err != nil {
		return err
	}

	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}

	return pageTemplate.Execute(w, pageData{
		Lang:  lang,
		Title: title,
		Body:  htmltemplate.HTML(body),
		Math:  hasMath,
		Brand: FooterBrand,
		Date:  opts.now().Format("2006-01-02 15:04"),
	})
}

// postProcess 给缺少 id 的标题补上 id，标题较多时在开头插入目录，
// 返回 body 内的 HTML 以及是否包含公式
func postProcess(r io.Reader) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false, fmt.Errorf("parse html: %w", err)
	}
	body := doc.Find("body")

	body.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); !ok || id == "" {
			s.SetAttr("id", fmt.Sprintf("section-%d", i+1))
		}
	})

	body.Find(`a[href^="http://"], a[href^="https://"]`).Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("rel", "noopener")
	})

	if toc := buildTOC(body.Find("h1, h2")); toc != "" {
		body.PrependHtml(toc)
	}

	hasMath := body.Find(".math").Length() > 0

	var out bytes.Buffer
	for _, n := range body.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&out, c); err != nil {
				return "", false, fmt.Errorf("render html: %w", err)
			}
		}
	}
	return out.String(), hasMath, nil
}

func buildTOC(headings *goquery.Selection) string {
	if headings.Length() < tocMinHeadings {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<nav class="toc"><ul>`)
	headings.Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		fmt.Fprintf(&sb, `<li class="toc-%s"><a href="#%s">%s</a></li>`,
			goquery.NodeName(s), html.EscapeString(id), html.EscapeString(strings.TrimSpace(s.Text())))
	})
	sb.WriteString(`</ul></nav>`)
	return sb.String()
}

type pageData struct {
	Lang  string
	Title string
	Body  htmltemplate.HTML
	Math  bool
	Brand string
	Date  string
}

var pageTemplate = htmltemplate.Must(htmltemplate.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', 'DejaVu Sans', 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.75; color: #1a1a2e; background: #fafbfc;
            max-width: 860px; margin: 0 auto; padding: 40px 32px;
            word-wrap: break-word; overflow-wrap: break-word;
        }
        p { margin: 0 0 1em 0; text-align: justify; hyphens: auto; }
        h1 {
            font-size: 2em; font-weight: 700;
            border-bottom: 3px solid #4361ee;
            padding-bottom: 12px; margin: 40px 0 20px 0; line-height: 1.3;
        }
        h2 {
            font-size: 1.5em; font-weight: 700;
            border-bottom: 1px solid #dee2e6;
            padding-bottom: 8px; margin: 36px 0 16px 0; line-height: 1.3;
        }
        h3 { font-size: 1.25em; font-weight: 700; margin: 28px 0 12px 0; line-height: 1.3; }
        h4 { font-size: 1.1em; font-weight: 700; margin: 24px 0 10px 0; }
        a { color: #4361ee; text-decoration: none; }
        a:hover { text-decoration: underline; }
        code {
            background: #e9ecef; padding: 2px 6px; border-radius: 4px;
            font-family: 'Consolas', 'Courier New', monospace;
            font-size: 0.9em; color: #d63384; word-break: break-all;
        }
        pre {
            background: #1e1e2e; color: #cdd6f4; padding: 20px;
            border-radius: 8px; overflow-x: auto; line-height: 1.5;
            margin: 16px 0; white-space: pre-wrap; word-wrap: break-word;
        }
        pre code { background: none; color: inherit; padding: 0; word-break: normal; }
        ul, ol { padding-left: 28px; margin: 8px 0 16px 0; }
        li { margin: 4px 0; line-height: 1.6; }
        table { border-collapse: collapse; width: 100%; margin: 16px 0; }
        th, td { border: 1px solid #dee2e6; padding: 10px 14px; text-align: left; }
        th { background: #f1f3f5; font-weight: 600; }
        tr:nth-child(even) { background: #f8f9fa; }
        blockquote {
            border-left: 4px solid #4361ee; margin: 16px 0;
            padding: 12px 20px; background: #eef2ff;
            color: #495057; font-style: italic;
        }
        img { max-width: 100%; height: auto; margin: 16px 0; display: block; }
        hr { border: none; border-top: 2px solid #dee2e6; margin: 32px 0; }
        nav.toc { margin: 0 0 32px 0; }
        nav.toc ul { list-style: none; padding-left: 0; }
        nav.toc .toc-h2 { padding-left: 20px; }
        .meta {
            color: #868e96; font-size: 0.85em;
            border-top: 1px solid #dee2e6;
            padding-top: 16px; margin-top: 48px;
        }
        @media print {
            body { max-width: none; padding: 20px; }
            a { color: #1a1a2e; text-decoration: underline; }
        }
    </style>
{{- if .Math}}
    <script id="MathJax-script" async src="https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"></script>
{{- end}}
</head>
<body>
{{.Body}}
<div class="meta">{{.Brand}} | {{.Date}}</div>
</body>
</html>
`))
