package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/retry"
	"google.golang.org/genai"
)

// Config Gemini 配置
type Config struct {
	providers.BaseConfig
	RetryConfig retry.RetryConfig `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	cfg := Config{
		BaseConfig:  providers.DefaultConfig(),
		RetryConfig: retry.DefaultRetryConfig(),
	}
	cfg.Model = "gemini-2.5-flash"
	return cfg
}

// Provider 基于 google.golang.org/genai 的提供商
type Provider struct {
	config  Config
	client  *genai.Client
	retrier *retry.NetworkRetrier
}

var _ providers.TranslationProvider = (*Provider)(nil)

// New 创建 Gemini 提供商
func New(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, providers.NewError(providers.ErrCodeConfig, "gemini api key is empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.APIEndpoint != "" {
		clientConfig.HTTPOptions.BaseURL = strings.TrimRight(config.APIEndpoint, "/") + "/"
	}
	if len(config.Headers) > 0 {
		clientConfig.HTTPOptions.Headers = make(map[string][]string, len(config.Headers))
		for k, v := range config.Headers {
			clientConfig.HTTPOptions.Headers[k] = []string{v}
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	config.RetryConfig.MaxRetries = config.MaxRetries
	if config.RetryDelay > 0 {
		config.RetryConfig.InitialDelay = config.RetryDelay
	}

	return &Provider{
		config:  config,
		client:  client,
		retrier: retry.NewNetworkRetrier(config.RetryConfig),
	}, nil
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	genConfig := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}

	temperature := p.config.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		t := float32(temperature)
		genConfig.Temperature = &t
	}

	maxTokens := p.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.UserPrompt}}}}

	var resp *genai.GenerateContentResponse
	err := p.retrier.Do(ctx, func() error {
		var callErr error
		resp, callErr = p.client.Models.GenerateContent(ctx, p.config.Model, contents, genConfig)
		return wrapError(callErr)
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, providers.NewError(providers.ErrCodeEmpty, "gemini returned no text")
	}

	out := &providers.ProviderResponse{
		Text:  text,
		Model: p.config.Model,
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	return out, nil
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewHTTPError(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return providers.NewHTTPError(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return fmt.Errorf("gemini generate content failed: %w", err)
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "gemini"
}
