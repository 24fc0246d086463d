package compat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/retry"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config OpenAI 兼容端点配置（DeepSeek、Ollama、Anthropic /v1 等）
type Config struct {
	providers.BaseConfig
	Name        string            `json:"name"`
	RetryConfig retry.RetryConfig `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Name:        "openai-compatible",
		RetryConfig: retry.DefaultRetryConfig(),
	}
}

// statusRoundTripper 记录最近一次请求的状态码
type statusRoundTripper struct {
	base http.RoundTripper
	mu   sync.Mutex
	code int
}

func (s *statusRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.base.RoundTrip(req)
	if err == nil && resp != nil {
		s.mu.Lock()
		s.code = resp.StatusCode
		s.mu.Unlock()
	}
	return resp, err
}

func (s *statusRoundTripper) last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Provider 使用 go-openai 客户端访问任意 OpenAI 兼容接口
type Provider struct {
	config Config
	client *openai.Client
	status *statusRoundTripper
	logger *zap.Logger
}

var _ providers.TranslationProvider = (*Provider)(nil)

// New 创建提供商。重试在 HTTP 传输层完成。
func New(config Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	status := &statusRoundTripper{base: http.DefaultTransport}
	config.RetryConfig.MaxRetries = config.MaxRetries
	if config.RetryDelay > 0 {
		config.RetryConfig.InitialDelay = config.RetryDelay
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: headerRoundTripper{base: retry.NewTransport(status, config.RetryConfig), headers: config.Headers},
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.HTTPClient = httpClient
	if config.APIEndpoint != "" {
		// go-openai 的路径以斜杠开头，避免出现双斜杠
		clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}

	logger.Debug("创建 OpenAI 兼容客户端",
		zap.String("name", config.Name),
		zap.String("model", config.Model),
		zap.String("base_url", clientConfig.BaseURL),
		zap.String("api_key", maskAuthToken(config.APIKey)))

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		status: status,
		logger: logger,
	}
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range h.headers {
			req.Header.Set(k, v)
		}
	}
	return h.base.RoundTrip(req)
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	chatReq := openai.ChatCompletionRequest{
		Model:     p.config.Model,
		Messages:  messages,
		MaxTokens: p.config.MaxTokens,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	temperature := p.config.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	chatReq.Temperature = float32(temperature)

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, providers.NewError(providers.ErrCodeEmpty, "no choices returned")
	}

	return &providers.ProviderResponse{
		Text:         resp.Choices[0].Message.Content,
		TokensIn:     resp.Usage.PromptTokens,
		TokensOut:    resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Metadata: map[string]interface{}{
			"id": resp.ID,
		},
	}, nil
}

func (p *Provider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewHTTPError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return providers.NewHTTPError(reqErr.HTTPStatusCode, "request failed", err)
	}
	if code := p.status.last(); code >= 400 {
		return providers.NewHTTPError(code, err.Error(), err)
	}
	return fmt.Errorf("%s chat completion failed: %w", p.config.Name, err)
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return p.config.Name
}

// maskAuthToken 隐藏密钥中间部分，只用于日志
func maskAuthToken(token string) string {
	if len(token) <= 8 {
		if token == "" {
			return ""
		}
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
