package translation

// Chunk 是单个源文件中的一段连续文本，独立翻译
type Chunk struct {
	OwnerFile string `json:"owner_file"`
	// Index 从 1 开始，连续递增到 Total
	Index int    `json:"index"`
	Total int    `json:"total"`
	Text  string `json:"text"`
}

// IsPartial 文件是否被切成了多个分块
func (c Chunk) IsPartial() bool {
	return c.Total > 1
}

// Status 分块或文件的翻译状态
type Status string

const (
	StatusOK          Status = "ok"
	StatusError       Status = "error"
	StatusInterrupted Status = "interrupted"
)

// TranslatedChunk 分块的翻译结果
type TranslatedChunk struct {
	OwnerFile    string `json:"owner_file"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Status       Status `json:"status"`
	Cached       bool   `json:"cached,omitempty"`
	Err          error  `json:"-"`
}

// OK 是否翻译成功
func (c TranslatedChunk) OK() bool {
	return c.Status == StatusOK
}

// GlossaryEntry 术语表条目：源术语 -> 目标术语
type GlossaryEntry struct {
	Source string `json:"source" toml:"source" yaml:"source"`
	Target string `json:"target" toml:"target" yaml:"target"`
}
