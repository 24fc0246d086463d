package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const documentPart = "word/document.xml"

var headingStyle = regexp.MustCompile(`(?i)^heading\s*(\d)$`)

// ExtractDocx 把 DOCX 转换为 Markdown：标题样式转为 #，列表转为 "- "，
// 表格转为带分隔行的管道表格，块之间用空行分隔。
func ExtractDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		return docxToMarkdown(rc)
	}
	return "", fmt.Errorf("docx %s: missing %s", path, documentPart)
}

func docxToMarkdown(r io.Reader) (string, error) {
	var doc wordDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}

	var blocks []string
	for _, block := range doc.Body.Blocks {
		switch {
		case block.Paragraph != nil:
			if s := paragraphMarkdown(block.Paragraph); s != "" {
				blocks = append(blocks, s)
			}
		case block.Table != nil:
			if s := tableMarkdown(block.Table); s != "" {
				blocks = append(blocks, s)
			}
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func paragraphMarkdown(p *wordParagraph) string {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return ""
	}

	style := p.StyleID()
	if m := headingStyle.FindStringSubmatch(strings.ReplaceAll(style, " ", "")); m != nil {
		level, _ := strconv.Atoi(m[1])
		if level >= 1 && level <= 6 {
			return strings.Repeat("#", level) + " " + text
		}
	}
	if strings.EqualFold(style, "Title") {
		return "# " + text
	}
	if p.IsNumbered() || strings.Contains(strings.ToLower(style), "list") {
		return "- " + text
	}
	return text
}

func tableMarkdown(t *wordTable) string {
	if len(t.Rows) == 0 {
		return ""
	}

	rows := make([]string, 0, len(t.Rows)+1)
	for i, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.ReplaceAll(cell.Text(), "|", `\|`)
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(row.Cells))
			for j := range sep {
				sep[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}
