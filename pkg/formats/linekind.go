package formats

import (
	"regexp"
	"strings"
)

// LineKind 表示一行 Markdown 在块级结构中的类别
type LineKind int

const (
	KindParagraph LineKind = iota
	KindBlank
	KindCodeFence
	KindTable
	KindHeading
	KindRule
	KindList
	KindBlockquote
	KindImage
)

var kindNames = map[LineKind]string{
	KindParagraph:  "paragraph",
	KindBlank:      "blank",
	KindCodeFence:  "codefence",
	KindTable:      "table",
	KindHeading:    "heading",
	KindRule:       "rule",
	KindList:       "list",
	KindBlockquote: "blockquote",
	KindImage:      "image",
}

func (k LineKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var (
	headingPattern  = regexp.MustCompile(`^(#{1,6})\s`)
	headingPrefix   = regexp.MustCompile(`^#{1,6}\s+`)
	listItemPattern = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+`)
)

// Classify 判断单行的类别。优先级与规范化器的处理顺序一致：
// 代码围栏、空行、表格行、标题、分隔线、列表项、引用、图片，其余为段落。
func Classify(line string) LineKind {
	stripped := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(stripped, "```"):
		return KindCodeFence
	case stripped == "":
		return KindBlank
	case isTableRow(stripped):
		return KindTable
	case headingPattern.MatchString(stripped):
		return KindHeading
	case isRule(stripped):
		return KindRule
	case listItemPattern.MatchString(line):
		return KindList
	case strings.HasPrefix(stripped, ">"):
		return KindBlockquote
	case strings.HasPrefix(stripped, "!["):
		return KindImage
	default:
		return KindParagraph
	}
}

// HeadingLevel 返回标题级别和去掉 # 前缀后的文本
func HeadingLevel(line string) (int, string, bool) {
	stripped := strings.TrimSpace(line)
	m := headingPattern.FindStringSubmatch(stripped)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), headingPrefix.ReplaceAllString(stripped, ""), true
}

// ListMarker 解析列表项，返回缩进宽度、标记和正文
func ListMarker(line string) (indent int, marker string, text string, ok bool) {
	loc := listItemPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, "", "", false
	}
	return loc[3] - loc[2], line[loc[4]:loc[5]], strings.TrimSpace(line[loc[1]:]), true
}

func isTableRow(stripped string) bool {
	return strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|")
}

func isRule(stripped string) bool {
	return stripped == "---" || stripped == "***" || stripped == "___"
}
