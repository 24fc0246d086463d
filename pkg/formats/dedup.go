package formats

import "strings"

// Deduplicate 清理逐块翻译产生的重复行与拆分标题。
//
// 连续且去除空白后相同的非空行只保留一行。相邻的同级标题若一方文本包含另一方，
// 保留较长的那个；若较短的标题是较长标题的前缀残片，紧随其后的剩余片段行也会被丢弃。
// 代码围栏内的行（包括围栏行本身）原样保留，不参与任何合并。
// 其余行保持原样和原顺序。结果再次处理时不会改变。
func Deduplicate(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	prev := ""
	pendingFragment := ""
	inCode := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		isFence := Classify(line) == KindCodeFence
		if isFence || inCode {
			if isFence {
				inCode = !inCode
			}
			result = append(result, line)
			prev = stripped
			pendingFragment = ""
			continue
		}

		if stripped != "" && stripped == prev {
			continue
		}

		if pendingFragment != "" && stripped == pendingFragment {
			pendingFragment = ""
			continue
		}
		pendingFragment = ""

		if prev != "" && stripped != "" {
			prevLevel, prevText, prevIsHeading := HeadingLevel(prev)
			currLevel, currText, currIsHeading := HeadingLevel(stripped)

			if prevIsHeading && currIsHeading && prevLevel == currLevel {
				if strings.Contains(currText, prevText) {
					result[len(result)-1] = line
					result = mergeHeadingTail(result)
					prev = strings.TrimSpace(result[len(result)-1])
					continue
				}
				if strings.Contains(prevText, currText) {
					if remainder := strings.TrimSpace(strings.ReplaceAll(prevText, currText, "")); remainder != "" {
						pendingFragment = remainder
					}
					continue
				}
			}
		}

		result = append(result, line)
		prev = stripped
	}

	return strings.Join(result, "\n")
}

// mergeHeadingTail 在末尾标题被加长后向前继续合并：
// 紧邻的前一行若是同级标题且与末尾标题存在包含关系，只留较长的一个。
func mergeHeadingTail(result []string) []string {
	for len(result) >= 2 {
		last := strings.TrimSpace(result[len(result)-1])
		before := strings.TrimSpace(result[len(result)-2])
		lastLevel, lastText, lastOK := HeadingLevel(last)
		beforeLevel, beforeText, beforeOK := HeadingLevel(before)
		if !lastOK || !beforeOK || lastLevel != beforeLevel {
			return result
		}

		switch {
		case strings.Contains(lastText, beforeText):
			result[len(result)-2] = result[len(result)-1]
			result = result[:len(result)-1]
		case strings.Contains(beforeText, lastText):
			result = result[:len(result)-1]
		default:
			return result
		}
	}
	return result
}
