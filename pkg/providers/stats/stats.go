package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderStats Provider 调用统计
type ProviderStats struct {
	ProviderName       string           `json:"provider_name"`
	ModelName          string           `json:"model_name"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	TotalTokensIn      int64            `json:"total_tokens_in"`
	TotalTokensOut     int64            `json:"total_tokens_out"`
	AverageLatency     time.Duration    `json:"average_latency"`
	MinLatency         time.Duration    `json:"min_latency"`
	MaxLatency         time.Duration    `json:"max_latency"`
	TotalLatency       time.Duration    `json:"total_latency"`
	ErrorTypes         map[string]int64 `json:"error_types"`
	FirstRequestTime   time.Time        `json:"first_request_time"`
	LastRequestTime    time.Time        `json:"last_request_time"`
}

// SuccessRate 成功率（0..1）
func (s ProviderStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success   bool
	Latency   time.Duration
	TokensIn  int
	TokensOut int
	ErrorType string
}

// StatsManager 统计管理器
type StatsManager struct {
	stats map[string]*ProviderStats // key: provider:model
	now   func() time.Time
	mu    sync.Mutex
}

// NewStatsManager 创建统计管理器
func NewStatsManager() *StatsManager {
	return &StatsManager{
		stats: make(map[string]*ProviderStats),
		now:   time.Now,
	}
}

func (sm *StatsManager) getKey(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

// RecordRequest 记录请求结果
func (sm *StatsManager) RecordRequest(provider, model string, result RequestResult) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := sm.getKey(provider, model)
	s, ok := sm.stats[key]
	if !ok {
		s = &ProviderStats{
			ProviderName: provider,
			ModelName:    model,
			ErrorTypes:   make(map[string]int64),
		}
		sm.stats[key] = s
	}

	now := sm.now()
	if s.FirstRequestTime.IsZero() {
		s.FirstRequestTime = now
	}
	s.LastRequestTime = now

	s.TotalRequests++
	if result.Success {
		s.SuccessfulRequests++
		s.TotalTokensIn += int64(result.TokensIn)
		s.TotalTokensOut += int64(result.TokensOut)
	} else {
		s.FailedRequests++
		s.ErrorTypes[result.ErrorType]++
	}

	s.TotalLatency += result.Latency
	s.AverageLatency = s.TotalLatency / time.Duration(s.TotalRequests)
	if s.MinLatency == 0 || result.Latency < s.MinLatency {
		s.MinLatency = result.Latency
	}
	if result.Latency > s.MaxLatency {
		s.MaxLatency = result.Latency
	}
}

// Snapshot 返回按 key 排序的统计副本
func (sm *StatsManager) Snapshot() []ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	keys := make([]string, 0, len(sm.stats))
	for k := range sm.stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ProviderStats, 0, len(keys))
	for _, k := range keys {
		s := *sm.stats[k]
		s.ErrorTypes = make(map[string]int64, len(sm.stats[k].ErrorTypes))
		for et, n := range sm.stats[k].ErrorTypes {
			s.ErrorTypes[et] = n
		}
		out = append(out, s)
	}
	return out
}
