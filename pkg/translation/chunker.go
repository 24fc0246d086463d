package translation

import (
	"strings"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
)

// DefaultChunkSize 默认分块大小（字符数）
const DefaultChunkSize = 40000

const (
	sectionSeparator   = "\n## "
	paragraphSeparator = "\n\n"
)

// ChunkConfig 分块配置
type ChunkConfig struct {
	// MaxChars 单个分块的最大字符数（按 rune 计）
	MaxChars int `json:"max_chars" mapstructure:"max_chars"`
	// ProtectFences 不在代码围栏内部切分
	ProtectFences bool `json:"protect_fences" mapstructure:"protect_fences"`
}

// DefaultChunkConfig 返回默认分块配置
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:      DefaultChunkSize,
		ProtectFences: true,
	}
}

// Chunker 按二级标题和段落把文档切成分块
type Chunker struct {
	config ChunkConfig
}

// NewChunker 创建分块器
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultChunkSize
	}
	return &Chunker{config: config}
}

// Config 获取分块配置
func (c *Chunker) Config() ChunkConfig {
	return c.config
}

// Split 切分文本。先在每个 "\n## " 之前切成小节并贪心合并；
// 单个小节超长时再按空行切成段落合并。
// 单个段落本身超长时原样成为一个分块。
func (c *Chunker) Split(text string) []string {
	limit := c.config.MaxChars
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current string
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			chunks = append(chunks, s)
		}
		current, currentLen = "", 0
	}

	for _, section := range c.splitSections(text) {
		sectionLen := utf8.RuneCountInString(section)
		if currentLen+sectionLen <= limit {
			current += section
			currentLen += sectionLen
			continue
		}

		flush()
		if sectionLen <= limit {
			current, currentLen = section, sectionLen
			continue
		}

		// 段落之间用空行连接，计入 2 个字符
		for _, para := range c.splitParagraphs(section) {
			paraLen := utf8.RuneCountInString(para)
			if currentLen+paraLen+2 <= limit {
				if current != "" {
					current += paragraphSeparator
					currentLen += 2
				}
				current += para
				currentLen += paraLen
			} else {
				flush()
				current, currentLen = para, paraLen
			}
		}
	}
	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// ChunkFile 切分一个文件的文本并编号
func (c *Chunker) ChunkFile(ownerFile, text string) []Chunk {
	parts := c.Split(text)
	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{
			OwnerFile: ownerFile,
			Index:     i + 1,
			Total:     len(parts),
			Text:      part,
		}
	}
	return chunks
}

// splitSections 在每个 "\n## " 之前切开，分隔符保留在后一段开头
func (c *Chunker) splitSections(text string) []string {
	var sections []string
	start := 0
	for _, p := range c.boundaries(text, sectionSeparator) {
		if p > start {
			sections = append(sections, text[start:p])
		}
		start = p
	}
	return append(sections, text[start:])
}

// splitParagraphs 按空行切开，分隔符丢弃
func (c *Chunker) splitParagraphs(section string) []string {
	var paras []string
	start := 0
	for _, p := range c.boundaries(section, paragraphSeparator) {
		paras = append(paras, section[start:p])
		start = p + len(paragraphSeparator)
	}
	return append(paras, section[start:])
}

// boundaries 返回 sep 在 text 中不重叠出现的字节位置，开启 ProtectFences 时跳过围栏内的位置
func (c *Chunker) boundaries(text, sep string) []int {
	var fences []fenceRange
	if c.config.ProtectFences {
		fences = fenceRanges(text)
	}

	var positions []int
	pos := 0
	for {
		i := strings.Index(text[pos:], sep)
		if i < 0 {
			return positions
		}
		p := pos + i
		if insideFence(fences, p) {
			pos = p + 1
			continue
		}
		positions = append(positions, p)
		pos = p + len(sep)
	}
}

// fenceRange 代码围栏的字节范围：从开栏行首到闭栏行尾
type fenceRange struct {
	start, end int
}

// fenceRanges 找出文本中所有代码围栏，未闭合的围栏延伸到文本末尾
func fenceRanges(text string) []fenceRange {
	var ranges []fenceRange
	open := -1
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		content := strings.TrimSuffix(line, "\n")
		if formats.Classify(content) == formats.KindCodeFence {
			if open < 0 {
				open = offset
			} else {
				ranges = append(ranges, fenceRange{start: open, end: offset + len(content)})
				open = -1
			}
		}
		offset += len(line)
	}
	if open >= 0 {
		ranges = append(ranges, fenceRange{start: open, end: len(text)})
	}
	return ranges
}

func insideFence(ranges []fenceRange, p int) bool {
	for _, r := range ranges {
		if p >= r.start && p < r.end {
			return true
		}
	}
	return false
}
