package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// MockProvider 是基于 testify/mock 的翻译提供商
type MockProvider struct {
	mock.Mock
}

var _ providers.TranslationProvider = (*MockProvider)(nil)

// Translate 执行翻译
func (m *MockProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.ProviderResponse)
	return resp, args.Error(1)
}

// GetName 返回提供商名称
func (m *MockProvider) GetName() string {
	return "mock"
}

// SourceIs 匹配元数据中原文为 text 的请求
func SourceIs(text string) interface{} {
	return mock.MatchedBy(func(req *providers.ProviderRequest) bool {
		return req.Metadata[providers.MetadataSourceText] == text
	})
}
