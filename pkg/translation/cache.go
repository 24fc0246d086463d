package translation

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 24 * time.Hour
)

// CacheStats 缓存统计信息
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int64 `json:"size"`
}

// cacheEntry 缓存条目
type cacheEntry struct {
	Key          string    `json:"key"`
	Text         string    `json:"text"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Timestamp    time.Time `json:"timestamp"`
}

// CachedTranslation 缓存中保存的分块译文
type CachedTranslation struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// ChunkCache 分块译文缓存：内存 LRU 在前，目录中的 JSON 文件在后。
// basePath 为空时只用内存。
type ChunkCache struct {
	basePath string
	memory   *expirable.LRU[string, CachedTranslation]
	ttl      time.Duration
	stats    CacheStats
	mutex    sync.Mutex
}

// NewChunkCache 创建分块缓存，目录创建失败时退回纯内存缓存
func NewChunkCache(basePath string, ttl time.Duration) *ChunkCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if basePath != "" {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			basePath = ""
		}
	}
	return &ChunkCache{
		basePath: basePath,
		memory:   expirable.NewLRU[string, CachedTranslation](defaultCacheSize, nil, ttl),
		ttl:      ttl,
	}
}

// getFilePath 获取缓存文件路径
func (c *ChunkCache) getFilePath(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(c.basePath, fmt.Sprintf("%x.json", hash))
}

// Get 获取缓存
func (c *ChunkCache) Get(key string) (CachedTranslation, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if value, ok := c.memory.Get(key); ok {
		c.stats.Hits++
		return value, true
	}

	if c.basePath == "" {
		c.stats.Misses++
		return CachedTranslation{}, false
	}

	filePath := c.getFilePath(key)
	data, err := os.ReadFile(filePath)
	if err != nil {
		c.stats.Misses++
		return CachedTranslation{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		c.stats.Misses++
		return CachedTranslation{}, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		_ = os.Remove(filePath)
		c.stats.Misses++
		return CachedTranslation{}, false
	}

	value := CachedTranslation{
		Text:         entry.Text,
		InputTokens:  entry.InputTokens,
		OutputTokens: entry.OutputTokens,
	}
	c.memory.Add(key, value)
	c.stats.Hits++
	return value, true
}

// Set 设置缓存
func (c *ChunkCache) Set(key string, value CachedTranslation) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.memory.Add(key, value)
	if c.basePath == "" {
		return nil
	}

	data, err := json.Marshal(cacheEntry{
		Key:          key,
		Text:         value.Text,
		InputTokens:  value.InputTokens,
		OutputTokens: value.OutputTokens,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return err
	}

	filePath := c.getFilePath(key)
	_, statErr := os.Stat(filePath)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return WrapError(err, ErrCodeCache, "write cache entry")
	}
	if errors.Is(statErr, os.ErrNotExist) {
		c.stats.Size++
	}
	return nil
}

// Stats 获取缓存统计信息
func (c *ChunkCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := c.stats
	if c.basePath == "" {
		stats.Size = int64(c.memory.Len())
	}
	return stats
}

// CacheKeyComponents 缓存key组件
type CacheKeyComponents struct {
	Model        string // 模型名称
	LangPair     string // 语言对，如 en-ru
	SystemPrompt string // 系统提示词，参与哈希
	Text         string // 分块原文
	MaxTokens    int    // 最大输出token数
}

// GenerateCacheKey 生成基于多个组件的缓存key
func GenerateCacheKey(components CacheKeyComponents) string {
	systemHash := md5.Sum([]byte(components.SystemPrompt))
	keyData := fmt.Sprintf("model:%s|pair:%s|system:%x|tokens:%d|text:%s",
		components.Model,
		components.LangPair,
		systemHash,
		components.MaxTokens,
		components.Text,
	)

	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("%x", hash)
}
