package raw

import (
	"context"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// Provider Raw 提供商（跳过翻译，直接返回原文），用于离线验证分块和组装流程
type Provider struct{}

var _ providers.TranslationProvider = (*Provider)(nil)

// New 创建新的 Raw 提供商
func New() *Provider {
	return &Provider{}
}

// Translate 直接返回原文
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := req.UserPrompt
	if src, ok := req.Metadata[providers.MetadataSourceText].(string); ok {
		text = src
	}

	return &providers.ProviderResponse{
		Text:  text,
		Model: "raw",
		Metadata: map[string]interface{}{
			"type": "raw_passthrough",
		},
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "raw"
}
