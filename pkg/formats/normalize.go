package formats

import "strings"

// normalizer 保存逐行状态机的状态
type normalizer struct {
	out       []string
	inCode    bool
	inTable   bool
	prevBlank bool
}

func (n *normalizer) lastIsContent() bool {
	return len(n.out) > 0 && n.out[len(n.out)-1] != ""
}

func (n *normalizer) ensureBlank() {
	if n.lastIsContent() {
		n.out = append(n.out, "")
	}
}

// Normalize 把翻译后的 Markdown 重排为结构规整的文本：
// 代码块原样保留，连续空行压缩为一行，表格和标题前补空行，
// 被模型折行的段落合并为单行，末尾只保留一个换行符。
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	n := &normalizer{out: make([]string, 0, len(lines))}

	for i := 0; i < len(lines); {
		line := lines[i]
		kind := Classify(line)

		if kind == KindCodeFence {
			n.inCode = !n.inCode
			n.out = append(n.out, line)
			n.prevBlank = false
			i++
			continue
		}
		if n.inCode {
			n.out = append(n.out, line)
			n.prevBlank = false
			i++
			continue
		}

		if kind == KindBlank {
			if !n.prevBlank && len(n.out) > 0 {
				n.out = append(n.out, "")
				n.prevBlank = true
			}
			i++
			continue
		}
		n.prevBlank = false

		if kind == KindTable {
			if !n.inTable {
				n.ensureBlank()
			}
			n.inTable = true
			n.out = append(n.out, line)
			i++
			continue
		}
		if n.inTable {
			n.inTable = false
			n.ensureBlank()
		}

		switch kind {
		case KindHeading:
			n.ensureBlank()
			n.out = append(n.out, line)
			i++
		case KindRule, KindList, KindBlockquote, KindImage:
			n.out = append(n.out, line)
			i++
		default:
			paragraph := []string{strings.TrimSpace(line)}
			j := i + 1
			for j < len(lines) && Classify(lines[j]) == KindParagraph {
				paragraph = append(paragraph, strings.TrimSpace(lines[j]))
				j++
			}
			n.out = append(n.out, strings.Join(paragraph, " "))
			i = j
		}
	}

	for len(n.out) > 0 && n.out[len(n.out)-1] == "" {
		n.out = n.out[:len(n.out)-1]
	}
	return strings.Join(n.out, "\n") + "\n"
}
