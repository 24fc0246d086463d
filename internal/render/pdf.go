package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
)

// RequiredFont PDF 渲染必需的字体文件，缺失时跳过 PDF
const RequiredFont = "DejaVuSans.ttf"

const (
	codeLineLimit  = 95
	tableCellLimit = 40
)

var headingSizes = map[int]float64{1: 20, 2: 16, 3: 13, 4: 11}

type fontFile struct {
	family string
	style  string
	file   string
}

var dejavuFonts = []fontFile{
	{"DejaVuSans", "", "DejaVuSans.ttf"},
	{"DejaVuSans", "B", "DejaVuSans-Bold.ttf"},
	{"DejaVuSans", "I", "DejaVuSans-Oblique.ttf"},
	{"DejaVuSans", "BI", "DejaVuSans-BoldOblique.ttf"},
	{"DejaVuMono", "", "DejaVuSansMono.ttf"},
	{"DejaVuMono", "B", "DejaVuSansMono-Bold.ttf"},
}

// PDFRenderer 用 fpdf 逐块排版 Markdown，需要 font_dir 中的 DejaVu 字体
type PDFRenderer struct {
	fontDir string
	// coreFonts 为 true 时使用内置的 Helvetica / Courier，不读取字体文件
	coreFonts bool
}

// NewPDFRenderer 创建 PDF 渲染器
func NewPDFRenderer(fontDir string) *PDFRenderer {
	return &PDFRenderer{fontDir: fontDir}
}

func (r *PDFRenderer) Format() string { return FormatPDF }

// Available 检查必需字体是否存在
func (r *PDFRenderer) Available() error {
	if r.coreFonts {
		return nil
	}
	path := filepath.Join(r.fontDir, RequiredFont)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("font %s not found in %s", RequiredFont, r.fontDir)
	}
	return nil
}

// pdfWriter 保存排版状态
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	sans   string
	mono   string
	styles map[string]bool // sans 字体已注册的样式
	width  float64         // 正文宽度
	left   float64
}

// Render 实现 Renderer
func (r *PDFRenderer) Render(md string, opts Options, w io.Writer) error {
	if err := r.Available(); err != nil {
		return err
	}

	pw := r.newWriter()
	pw.pdf.SetTitle(opts.Title, true)
	pw.pdf.SetCreator(FooterBrand, true)
	pw.pdf.SetCreationDate(opts.now())
	pw.pdf.AddPage()
	pw.body()

	for _, b := range formats.ParseBlocks(md) {
		switch b.Kind {
		case formats.KindHeading:
			pw.heading(b.Level, b.Text)
		case formats.KindCodeFence:
			pw.code(b.Lines)
		case formats.KindRule:
			pw.rule()
		case formats.KindTable:
			pw.table(b.Rows)
		case formats.KindList:
			pw.listItem(b)
		case formats.KindBlockquote:
			pw.quote(b.Text)
		case formats.KindImage:
			pw.paragraph("[" + b.Text + "]")
		default:
			pw.paragraph(b.Text)
		}
		if pw.pdf.Err() {
			return fmt.Errorf("render pdf: %w", pw.pdf.Error())
		}
	}

	if err := pw.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *PDFRenderer) newWriter() *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", r.fontDir)
	pdf.SetAutoPageBreak(true, 20)

	pw := &pdfWriter{pdf: pdf, styles: map[string]bool{"": true}}
	if r.coreFonts {
		pw.sans, pw.mono = "Helvetica", "Courier"
		pw.styles["B"], pw.styles["I"] = true, true
	} else {
		pw.sans, pw.mono = "DejaVuSans", "DejaVuSans"
		for _, f := range dejavuFonts {
			if _, err := os.Stat(filepath.Join(r.fontDir, f.file)); err != nil {
				continue
			}
			pdf.AddUTF8Font(f.family, f.style, f.file)
			switch {
			case f.family == "DejaVuSans":
				pw.styles[f.style] = true
			case f.family == "DejaVuMono" && f.style == "":
				pw.mono = "DejaVuMono"
			}
		}
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	pw.left = left
	pw.width = pageW - left - right
	return pw
}

// font 设置正文字体，未注册的样式回退为常规
func (pw *pdfWriter) font(style string, size float64) {
	if !pw.styles[style] {
		style = ""
	}
	pw.pdf.SetFont(pw.sans, style, size)
}

func (pw *pdfWriter) body() {
	pw.font("", 10)
	pw.pdf.SetTextColor(30, 30, 30)
}

func (pw *pdfWriter) heading(level int, text string) {
	size, ok := headingSizes[level]
	if !ok {
		size = 10
	}
	pw.pdf.Ln(4)
	pw.font("B", size)
	pw.pdf.SetTextColor(26, 26, 46)
	pw.pdf.MultiCell(0, size*0.6, formats.StripInline(text), "", "L", false)
	if level <= 2 {
		y := pw.pdf.GetY()
		pw.pdf.SetDrawColor(67, 97, 238)
		pw.pdf.Line(pw.left, y, pw.left+pw.width, y)
	}
	pw.pdf.Ln(3)
	pw.body()
}

func (pw *pdfWriter) code(lines []string) {
	pw.pdf.SetFillColor(30, 30, 46)
	pw.pdf.SetTextColor(205, 214, 244)
	pw.pdf.SetFont(pw.mono, "", 8)
	for _, line := range lines {
		pw.pdf.CellFormat(0, 4.5, truncate(line, codeLineLimit, "..."), "", 1, "L", true, 0, "")
	}
	pw.pdf.Ln(4)
	pw.body()
}

func (pw *pdfWriter) rule() {
	pw.pdf.Ln(4)
	y := pw.pdf.GetY()
	pw.pdf.SetDrawColor(200, 200, 200)
	pw.pdf.Line(pw.left, y, pw.left+pw.width, y)
	pw.pdf.Ln(8)
}

func (pw *pdfWriter) table(rows [][]string) {
	pw.font("", 9)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if i == 0 {
			pw.font("B", 9)
		}
		w := pw.width / float64(len(row))
		for _, cell := range row {
			pw.pdf.CellFormat(w, 7, truncate(formats.StripInline(cell), tableCellLimit, ""), "1", 0, "L", false, 0, "")
		}
		pw.pdf.Ln(-1)
		if i == 0 {
			pw.font("", 9)
		}
	}
	pw.pdf.Ln(2)
	pw.body()
}

func (pw *pdfWriter) listItem(b formats.Block) {
	offset := 10 + float64(b.Indent/2)*6
	bullet := "• "
	if b.Ordered {
		bullet = b.Marker + " "
	}
	pw.pdf.SetX(pw.left + offset)
	pw.pdf.MultiCell(pw.width-offset-4, 6, bullet+formats.StripInline(b.Text), "", "L", false)
	pw.pdf.Ln(1)
}

func (pw *pdfWriter) quote(text string) {
	pw.pdf.SetX(pw.left + 8)
	pw.font("I", 10)
	pw.pdf.SetTextColor(59, 59, 92)
	pw.pdf.MultiCell(pw.width-16, 6, formats.StripInline(text), "", "L", false)
	pw.pdf.Ln(2)
	pw.body()
}

func (pw *pdfWriter) paragraph(text string) {
	pw.pdf.MultiCell(0, 6, formats.StripInline(text), "", "L", false)
	pw.pdf.Ln(2)
}

// truncate 按字符数截断，超出时追加 suffix
func truncate(s string, limit int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}
