package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
)

// DOCXRenderer 直接写出 WordprocessingML 包
type DOCXRenderer struct{}

// NewDOCXRenderer 创建 DOCX 渲染器
func NewDOCXRenderer() *DOCXRenderer {
	return &DOCXRenderer{}
}

func (r *DOCXRenderer) Format() string { return FormatDOCX }

// Render 实现 Renderer
func (r *DOCXRenderer) Render(md string, opts Options, w io.Writer) error {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", coreXML(opts.Title, opts.now())},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/document.xml", documentXML(formats.ParseBlocks(md))},
	}

	zw := zip.NewWriter(w)
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(fw, part.content); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

// docxWriter 拼接 document.xml 的 body
type docxWriter struct {
	sb strings.Builder
}

func documentXML(blocks []formats.Block) string {
	var dw docxWriter
	dw.sb.WriteString(xml.Header)
	dw.sb.WriteString(`<w:document xmlns:w="` + wordNS + `"><w:body>`)

	for _, b := range blocks {
		switch b.Kind {
		case formats.KindHeading:
			dw.paragraph(fmt.Sprintf("Heading%d", min(b.Level, 4)), "", run(formats.StripInline(b.Text), ""))
		case formats.KindList:
			style, numID := "ListBullet", 1
			if b.Ordered {
				style, numID = "ListNumber", 2
			}
			ppr := fmt.Sprintf(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="%d"/></w:numPr><w:ind w:left="%d" w:hanging="360"/>`,
				numID, 720+min(b.Indent/2, 6)*360)
			dw.paragraph(style, ppr, run(formats.StripInline(b.Text), ""))
		case formats.KindBlockquote:
			dw.paragraph("Quote", "", run(formats.StripInline(b.Text), ""))
		case formats.KindCodeFence:
			dw.code(b.Lines)
		case formats.KindTable:
			dw.table(b.Rows)
		case formats.KindRule:
			dw.paragraph("", `<w:spacing w:before="240" w:after="240"/>`, "")
		case formats.KindImage:
			dw.paragraph("", "", run("["+b.Text+"]", "<w:i/>"))
		default:
			dw.paragraph("", "", run(formats.StripInline(b.Text), ""))
		}
	}

	dw.sb.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return dw.sb.String()
}

func (dw *docxWriter) paragraph(style, props, runs string) {
	dw.sb.WriteString("<w:p>")
	if style != "" || props != "" {
		dw.sb.WriteString("<w:pPr>")
		if style != "" {
			dw.sb.WriteString(`<w:pStyle w:val="` + style + `"/>`)
		}
		dw.sb.WriteString(props)
		dw.sb.WriteString("</w:pPr>")
	}
	dw.sb.WriteString(runs)
	dw.sb.WriteString("</w:p>")
}

// code 把代码块写成一个段落，行之间用 w:br 分隔
func (dw *docxWriter) code(lines []string) {
	var runs strings.Builder
	runs.WriteString("<w:r>")
	for i, line := range lines {
		if i > 0 {
			runs.WriteString("<w:br/>")
		}
		runs.WriteString(`<w:t xml:space="preserve">` + escape(line) + "</w:t>")
	}
	runs.WriteString("</w:r>")
	dw.paragraph("Code", "", runs.String())
}

// table 写出表格，首行加粗，列数取各行最大值
func (dw *docxWriter) table(rows [][]string) {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}

	dw.sb.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		dw.sb.WriteString(`<w:gridCol/>`)
	}
	dw.sb.WriteString("</w:tblGrid>")

	for i, row := range rows {
		dw.sb.WriteString("<w:tr>")
		for j := 0; j < cols; j++ {
			text := ""
			if j < len(row) {
				text = formats.StripInline(row[j])
			}
			rpr := ""
			if i == 0 {
				rpr = "<w:b/>"
			}
			dw.sb.WriteString("<w:tc>")
			dw.paragraph("", "", run(text, rpr))
			dw.sb.WriteString("</w:tc>")
		}
		dw.sb.WriteString("</w:tr>")
	}
	dw.sb.WriteString("</w:tbl>")
}

func run(text, rpr string) string {
	if text == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<w:r>")
	if rpr != "" {
		sb.WriteString("<w:rPr>" + rpr + "</w:rPr>")
	}
	sb.WriteString(`<w:t xml:space="preserve">` + escape(text) + "</w:t></w:r>")
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func coreXML(title string, now time.Time) string {
	return xml.Header +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(title) + `</dc:title>` +
		`<dc:creator>` + FooterBrand + `</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + now.UTC().Format(time.RFC3339) + `</dcterms:created>` +
		`</cp:coreProperties>`
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>` +
	`</Relationships>`

// 样式：正文 Arial 11pt，代码 Courier New 9pt，引用为斜体
const stylesXML = xml.Header + `<w:styles xmlns:w="` + wordNS + `">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:eastAsia="Arial" w:cs="Arial"/><w:sz w:val="22"/></w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="120"/></w:pPr></w:pPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="480" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:color w:val="1A1A2E"/><w:sz w:val="36"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="360" w:after="120"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:color w:val="1A1A2E"/><w:sz w:val="30"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="2"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading4"><w:name w:val="heading 4"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="200" w:after="80"/><w:outlineLvl w:val="3"/></w:pPr><w:rPr><w:b/><w:i/><w:sz w:val="22"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListNumber"><w:name w:val="List Number"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Quote"><w:name w:val="Quote"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="720"/></w:pPr><w:rPr><w:i/><w:color w:val="3B3B5C"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Code"><w:name w:val="Code"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="432"/><w:spacing w:after="0"/></w:pPr><w:rPr><w:rFonts w:ascii="Courier New" w:hAnsi="Courier New" w:cs="Courier New"/><w:color w:val="202030"/><w:sz w:val="18"/></w:rPr></w:style>` +
	`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`</w:tblBorders></w:tblPr></w:style>` +
	`</w:styles>`

// 编号：numId 1 为项目符号，numId 2 为十进制编号
const numberingXML = xml.Header + `<w:numbering xmlns:w="` + wordNS + `">` +
	`<w:abstractNum w:abstractNumId="0"><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:abstractNum w:abstractNumId="1"><w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="decimal"/><w:lvlText w:val="%1."/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`<w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num>` +
	`</w:numbering>`
