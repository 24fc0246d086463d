package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config OpenAI 配置（使用官方 SDK）。
// Anthropic 的 OpenAI 兼容端点同样走这里，只需设置 APIEndpoint。
type Config struct {
	providers.BaseConfig
	OrgID string `json:"org_id,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	cfg := Config{BaseConfig: providers.DefaultConfig()}
	cfg.Model = "gpt-4o"
	return cfg
}

// Provider OpenAI 提供商（使用官方 SDK，重试由 SDK 完成）
type Provider struct {
	config Config
	client openai.Client
}

// 确保 Provider 实现 providers.TranslationProvider 接口
var _ providers.TranslationProvider = (*Provider)(nil)

// New 创建新的 OpenAI 提供商
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}

	if config.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(config.APIEndpoint, "/")+"/"))
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(p.config.Model),
	}

	temperature := p.config.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	maxTokens := p.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, providers.NewHTTPError(apiErr.StatusCode, "openai chat completion failed", err)
		}
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, providers.NewError(providers.ErrCodeEmpty, "no choices returned from OpenAI")
	}

	return &providers.ProviderResponse{
		Text:         completion.Choices[0].Message.Content,
		TokensIn:     int(completion.Usage.PromptTokens),
		TokensOut:    int(completion.Usage.CompletionTokens),
		Model:        completion.Model,
		FinishReason: string(completion.Choices[0].FinishReason),
		Metadata: map[string]interface{}{
			"id": completion.ID,
		},
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}
