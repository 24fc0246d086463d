package formats

import (
	"regexp"
	"strings"
)

// Block 是规范化后 Markdown 中的一个块级元素，供不依赖 HTML 的渲染器使用
type Block struct {
	Kind LineKind

	// 标题级别（仅 KindHeading）
	Level int
	// 列表缩进与标记（仅 KindList）
	Indent  int
	Marker  string
	Ordered bool

	Text string
	// 代码块的原始行
	Lines []string
	// 表格的单元格，已去掉分隔行
	Rows [][]string
	// 代码块语言或图片地址
	Info string
}

var (
	tableSeparatorRow = regexp.MustCompile(`^\|[\s\-:|]+\|$`)
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// ParseBlocks 把 Markdown 拆成块序列。连续的表格行合并为一个表格块，
// 代码围栏之间的内容原样放入 Lines。
func ParseBlocks(text string) []Block {
	var blocks []Block
	var code *Block
	var table *Block

	flushTable := func() {
		if table != nil && len(table.Rows) > 0 {
			blocks = append(blocks, *table)
		}
		table = nil
	}

	for _, line := range strings.Split(text, "\n") {
		kind := Classify(line)
		stripped := strings.TrimSpace(line)

		if code != nil {
			if kind == KindCodeFence {
				blocks = append(blocks, *code)
				code = nil
				continue
			}
			code.Lines = append(code.Lines, line)
			continue
		}

		if kind == KindTable {
			if table == nil {
				table = &Block{Kind: KindTable}
			}
			if !tableSeparatorRow.MatchString(stripped) {
				table.Rows = append(table.Rows, SplitTableRow(stripped))
			}
			continue
		}
		flushTable()

		switch kind {
		case KindCodeFence:
			code = &Block{Kind: KindCodeFence, Info: strings.TrimSpace(strings.TrimLeft(stripped, "`"))}
		case KindBlank:
		case KindHeading:
			level, title, _ := HeadingLevel(stripped)
			blocks = append(blocks, Block{Kind: KindHeading, Level: level, Text: title})
		case KindRule:
			blocks = append(blocks, Block{Kind: KindRule})
		case KindList:
			indent, marker, body, _ := ListMarker(line)
			blocks = append(blocks, Block{
				Kind:    KindList,
				Indent:  indent,
				Marker:  marker,
				Ordered: strings.HasSuffix(marker, "."),
				Text:    body,
			})
		case KindBlockquote:
			blocks = append(blocks, Block{Kind: KindBlockquote, Text: strings.TrimSpace(strings.TrimLeft(stripped, ">"))})
		case KindImage:
			b := Block{Kind: KindImage, Text: stripped}
			if m := imagePattern.FindStringSubmatch(stripped); m != nil {
				b.Text, b.Info = m[1], m[2]
			}
			blocks = append(blocks, b)
		default:
			blocks = append(blocks, Block{Kind: KindParagraph, Text: stripped})
		}
	}

	flushTable()
	if code != nil {
		blocks = append(blocks, *code)
	}
	return blocks
}

// SplitTableRow 拆分 "| a | b |" 形式的表格行
func SplitTableRow(row string) []string {
	row = strings.TrimSpace(row)
	parts := strings.Split(row, "|")
	if len(parts) < 2 {
		return nil
	}
	cells := parts[1 : len(parts)-1]
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// CountImages 统计文本中的 ![alt](path) 图片引用
func CountImages(text string) int {
	return len(imagePattern.FindAllStringIndex(text, -1))
}

var inlineRules = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`!\[(.+?)\]\(.+?\)`), "[$1]"},
	{regexp.MustCompile(`\*\*\*(.+?)\*\*\*`), "$1"},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile("`(.+?)`"), "$1"},
	{regexp.MustCompile(`\[(.+?)\]\(.+?\)`), "$1"},
}

// StripInline 去掉行内强调、代码和链接语法，只保留可读文本
func StripInline(text string) string {
	for _, rule := range inlineRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return text
}
