package stats

import (
	"context"
	"errors"
	"time"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/retry"
)

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next         providers.TranslationProvider
	statsManager *StatsManager
	modelName    string
}

var _ providers.TranslationProvider = (*StatisticsMiddleware)(nil)

// NewStatisticsMiddleware 创建统计中间件
func NewStatisticsMiddleware(next providers.TranslationProvider, statsManager *StatsManager, modelName string) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
		modelName:    modelName,
	}
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	start := time.Now()
	resp, err := sm.next.Translate(ctx, req)

	result := RequestResult{
		Success: err == nil,
		Latency: time.Since(start),
	}
	if err != nil {
		result.ErrorType = classifyError(err)
	} else if resp != nil {
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
	}
	sm.statsManager.RecordRequest(sm.next.GetName(), sm.modelName, result)

	return resp, err
}

// GetName 获取被包装提供商的名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

func classifyError(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return providers.ErrCodeTimeout
	case retry.IsNetworkError(err):
		return "network"
	}
	return providers.ErrCodeUnknown
}
