package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	errs []error
	call int
}

func (p *scriptedProvider) Translate(_ context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	defer func() { p.call++ }()
	if p.call < len(p.errs) && p.errs[p.call] != nil {
		return nil, p.errs[p.call]
	}
	return &providers.ProviderResponse{Text: req.UserPrompt, TokensIn: 10, TokensOut: 20}, nil
}

func (p *scriptedProvider) GetName() string { return "scripted" }

func TestStatisticsMiddleware(t *testing.T) {
	manager := NewStatsManager()
	next := &scriptedProvider{errs: []error{
		nil,
		providers.NewHTTPError(429, "slow down", nil),
		errors.New("dial tcp: connection refused"),
	}}
	mw := NewStatisticsMiddleware(next, manager, "model-x")

	for i := 0; i < 3; i++ {
		_, _ = mw.Translate(context.Background(), &providers.ProviderRequest{UserPrompt: "hi"})
	}

	snapshot := manager.Snapshot()
	require.Len(t, snapshot, 1)
	s := snapshot[0]

	assert.Equal(t, "scripted", s.ProviderName)
	assert.Equal(t, "model-x", s.ModelName)
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(1), s.SuccessfulRequests)
	assert.Equal(t, int64(2), s.FailedRequests)
	assert.Equal(t, int64(10), s.TotalTokensIn)
	assert.Equal(t, int64(20), s.TotalTokensOut)
	assert.Equal(t, int64(1), s.ErrorTypes[providers.ErrCodeRateLimit])
	assert.Equal(t, int64(1), s.ErrorTypes["network"])
	assert.InDelta(t, 1.0/3.0, s.SuccessRate(), 1e-9)
	assert.Equal(t, "scripted", mw.GetName())
}

func TestStatsManagerLatency(t *testing.T) {
	manager := NewStatsManager()
	manager.RecordRequest("p", "m", RequestResult{Success: true, Latency: 2 * time.Second})
	manager.RecordRequest("p", "m", RequestResult{Success: true, Latency: 4 * time.Second})

	s := manager.Snapshot()[0]
	assert.Equal(t, 2*time.Second, s.MinLatency)
	assert.Equal(t, 4*time.Second, s.MaxLatency)
	assert.Equal(t, 3*time.Second, s.AverageLatency)
	assert.Zero(t, ProviderStats{}.SuccessRate())
}
