package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF 提取 PDF 每页的纯文本，页之间用空行分隔，空白页跳过
func ExtractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return "", fmt.Errorf("pdf %s page %d: %w", path, i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// pageText 按行读取页面文本，没有行信息时退回纯文本
func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var b strings.Builder
			for _, t := range row.Content {
				b.WriteString(t.S)
			}
			if s := strings.TrimRight(b.String(), " "); s != "" {
				lines = append(lines, s)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n"), nil
		}
	}
	return page.GetPlainText(nil)
}
