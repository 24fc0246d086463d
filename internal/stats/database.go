package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HistoryDBVersion = "1.0.0"
	MaxRecentRecords = 100
)

// Database 运行历史数据库，整个文件以 JSON 保存
type Database struct {
	filePath string
	data     *HistoryDB
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewDatabase 打开或创建运行历史数据库
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := &Database{
		filePath: filePath,
		logger:   logger,
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	if err := db.load(); err != nil {
		return nil, fmt.Errorf("failed to load history database: %w", err)
	}
	return db, nil
}

// load 读取数据库文件，不存在时创建空库
func (db *Database) load() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	data, err := os.ReadFile(db.filePath)
	if os.IsNotExist(err) {
		now := time.Now()
		db.data = &HistoryDB{
			Version:       HistoryDBVersion,
			CreatedAt:     now,
			LastUpdated:   now,
			LanguagePairs: make(map[string]*LanguagePairStats),
			Models:        make(map[string]*ModelStats),
			RecentRuns:    make([]*RunRecord, 0),
		}
		return db.saveUnsafe()
	}
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var history HistoryDB
	if err := json.Unmarshal(data, &history); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}
	if history.LanguagePairs == nil {
		history.LanguagePairs = make(map[string]*LanguagePairStats)
	}
	if history.Models == nil {
		history.Models = make(map[string]*ModelStats)
	}
	if history.RecentRuns == nil {
		history.RecentRuns = make([]*RunRecord, 0)
	}

	db.data = &history
	db.logger.Debug("已加载历史数据库",
		zap.String("path", db.filePath),
		zap.Int64("total_runs", history.TotalRuns))
	return nil
}

// Save 保存数据库
func (db *Database) Save() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.saveUnsafe()
}

// saveUnsafe 写临时文件后重命名（需要已持有锁）
func (db *Database) saveUnsafe() error {
	db.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempFile := db.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := os.Rename(tempFile, db.filePath); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}
	return nil
}

// AddRun 记录一次运行并更新汇总，ID 和时间为空时自动填充
func (db *Database) AddRun(record *RunRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	files := int64(record.FilesOK + record.FilesFailed)
	d := db.data
	d.TotalRuns++
	d.TotalFiles += files
	d.TotalCharacters += int64(record.CharacterCount)
	d.TotalInputTokens += int64(record.InputTokens)
	d.TotalOutputTokens += int64(record.OutputTokens)
	d.TotalCost += record.Cost
	d.TotalDuration += record.Duration
	if record.HasErrors() {
		d.TotalErrors++
	}

	pair, ok := d.LanguagePairs[record.LangPair]
	if !ok {
		pair = &LanguagePairStats{LangPair: record.LangPair}
		d.LanguagePairs[record.LangPair] = pair
	}
	pair.RunCount++
	pair.FileCount += files
	pair.CharacterCount += int64(record.CharacterCount)
	pair.Cost += record.Cost
	pair.LastUsed = record.Timestamp
	if record.HasErrors() {
		pair.ErrorCount++
	}
	total := time.Duration(int64(pair.AverageDuration) * (pair.RunCount - 1))
	pair.AverageDuration = (total + record.Duration) / time.Duration(pair.RunCount)

	model, ok := d.Models[record.Model]
	if !ok {
		model = &ModelStats{Model: record.Model}
		d.Models[record.Model] = model
	}
	model.RunCount++
	model.InputTokens += int64(record.InputTokens)
	model.OutputTokens += int64(record.OutputTokens)
	model.Cost += record.Cost
	model.LastUsed = record.Timestamp

	d.RecentRuns = append(d.RecentRuns, record)
	if len(d.RecentRuns) > MaxRecentRecords {
		sort.Slice(d.RecentRuns, func(i, j int) bool {
			return d.RecentRuns[i].Timestamp.After(d.RecentRuns[j].Timestamp)
		})
		d.RecentRuns = d.RecentRuns[:MaxRecentRecords]
	}

	return db.saveUnsafe()
}

// RecordCacheUsage 累加一次运行的缓存命中情况
func (db *Database) RecordCacheUsage(hits, misses int64) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	cs := &db.data.CacheStats
	cs.CacheHits += hits
	cs.CacheMisses += misses
	if total := cs.CacheHits + cs.CacheMisses; total > 0 {
		cs.CacheHitRate = float64(cs.CacheHits) / float64(total)
	}
}

// UpdateCacheStats 扫描缓存目录，更新文件数量、大小和时间范围
func (db *Database) UpdateCacheStats(cacheDir string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	var totalSize, fileCount int64
	var oldest, newest time.Time

	err := filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		fileCount++
		totalSize += info.Size()
		mod := info.ModTime()
		if oldest.IsZero() || mod.Before(oldest) {
			oldest = mod
		}
		if newest.IsZero() || mod.After(newest) {
			newest = mod
		}
		return nil
	})
	if err != nil {
		db.logger.Warn("扫描缓存目录失败", zap.Error(err))
	}

	cs := &db.data.CacheStats
	cs.CacheDir = cacheDir
	cs.TotalCacheFiles = fileCount
	cs.TotalCacheSize = totalSize
	cs.OldestCacheEntry = oldest
	cs.NewestCacheEntry = newest

	return db.saveUnsafe()
}

// GetStats 返回数据的深拷贝
func (db *Database) GetStats() *HistoryDB {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	data, _ := json.Marshal(db.data)
	var out HistoryDB
	_ = json.Unmarshal(data, &out)
	return &out
}

// GetRecentRuns 返回最近的运行记录，最新的在前
func (db *Database) GetRecentRuns(limit int) []*RunRecord {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if limit <= 0 || limit > len(db.data.RecentRuns) {
		limit = len(db.data.RecentRuns)
	}

	sorted := make([]*RunRecord, len(db.data.RecentRuns))
	copy(sorted, db.data.RecentRuns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted[:limit]
}
