package stats

import (
	"time"
)

// 运行状态
const (
	RunCompleted   = "completed"
	RunPartial     = "partial"
	RunInterrupted = "interrupted"
	RunBudget      = "budget_exceeded"
	RunFailed      = "failed"
)

// HistoryDB 运行历史数据库结构
type HistoryDB struct {
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	// 总体统计
	TotalRuns         int64         `json:"total_runs"`
	TotalFiles        int64         `json:"total_files"`
	TotalErrors       int64         `json:"total_errors"`
	TotalCharacters   int64         `json:"total_characters"`
	TotalInputTokens  int64         `json:"total_input_tokens"`
	TotalOutputTokens int64         `json:"total_output_tokens"`
	TotalCost         float64       `json:"total_cost"`
	TotalDuration     time.Duration `json:"total_duration"`

	// 缓存统计
	CacheStats CacheStatistics `json:"cache_stats"`

	// 语言对统计
	LanguagePairs map[string]*LanguagePairStats `json:"language_pairs"`

	// 模型统计
	Models map[string]*ModelStats `json:"models"`

	// 最近的运行记录
	RecentRuns []*RunRecord `json:"recent_runs"`
}

// CacheStatistics 分块缓存统计
type CacheStatistics struct {
	CacheDir         string    `json:"cache_dir"`
	TotalCacheFiles  int64     `json:"total_cache_files"`
	TotalCacheSize   int64     `json:"total_cache_size_bytes"`
	CacheHitRate     float64   `json:"cache_hit_rate"`
	CacheHits        int64     `json:"cache_hits"`
	CacheMisses      int64     `json:"cache_misses"`
	OldestCacheEntry time.Time `json:"oldest_cache_entry"`
	NewestCacheEntry time.Time `json:"newest_cache_entry"`
}

// LanguagePairStats 语言对统计
type LanguagePairStats struct {
	LangPair        string        `json:"lang_pair"`
	RunCount        int64         `json:"run_count"`
	FileCount       int64         `json:"file_count"`
	CharacterCount  int64         `json:"character_count"`
	ErrorCount      int64         `json:"error_count"`
	Cost            float64       `json:"cost"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUsed        time.Time     `json:"last_used"`
}

// ModelStats 模型使用统计
type ModelStats struct {
	Model        string    `json:"model"`
	RunCount     int64     `json:"run_count"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	LastUsed     time.Time `json:"last_used"`
}

// RunRecord 一次翻译运行
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LangPair  string    `json:"lang_pair"`
	Model     string    `json:"model"`
	Inputs    []string  `json:"inputs"`
	Outputs   []string  `json:"outputs,omitempty"`

	FilesOK      int `json:"files_ok"`
	FilesFailed  int `json:"files_failed"`
	FilesSkipped int `json:"files_skipped"`

	CharacterCount int           `json:"character_count"`
	InputTokens    int           `json:"input_tokens"`
	OutputTokens   int           `json:"output_tokens"`
	CachedChunks   int           `json:"cached_chunks"`
	Cost           float64       `json:"cost"`
	Duration       time.Duration `json:"duration"`
	Status         string        `json:"status"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// HasErrors 运行中是否有文件失败
func (r *RunRecord) HasErrors() bool {
	return r.Status == RunFailed || r.FilesFailed > 0
}
