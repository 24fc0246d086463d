package factory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/compat"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/gemini"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/raw"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/stats"
)

// AnthropicBaseURL Anthropic 的 OpenAI 兼容端点
const AnthropicBaseURL = "https://api.anthropic.com/v1/"

// ProviderFactory 提供商工厂，创建的提供商都带有使用统计
type ProviderFactory struct {
	stats  *stats.StatsManager
	logger *zap.Logger
}

// New 创建新的提供商工厂
func New(logger *zap.Logger) *ProviderFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderFactory{
		stats:  stats.NewStatsManager(),
		logger: logger,
	}
}

// Stats 返回所有提供商共享的统计
func (f *ProviderFactory) Stats() *stats.StatsManager {
	return f.stats
}

// CreateProvider 根据模型配置创建提供商
func (f *ProviderFactory) CreateProvider(ctx context.Context, modelConfig config.ModelConfig) (providers.TranslationProvider, error) {
	var (
		provider providers.TranslationProvider
		err      error
	)

	switch modelConfig.APIType {
	case config.APITypeAnthropic, config.APITypeOpenAI:
		provider, err = f.createOpenAIProvider(modelConfig)
	case config.APITypeOpenAICompatible:
		provider, err = f.createCompatProvider(modelConfig)
	case config.APITypeGemini:
		provider, err = f.createGeminiProvider(ctx, modelConfig)
	case config.APITypeRaw:
		provider = raw.New()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", modelConfig.APIType)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Debug("创建翻译提供商",
		zap.String("model", modelConfig.Name),
		zap.String("api_type", modelConfig.APIType),
		zap.String("provider", provider.GetName()))

	return stats.NewStatisticsMiddleware(provider, f.stats, modelConfig.ModelID), nil
}

// baseConfig 把模型配置转换为提供商的通用配置
func baseConfig(modelConfig config.ModelConfig) providers.BaseConfig {
	base := providers.DefaultConfig()
	base.APIKey = modelConfig.APIKey()
	base.APIEndpoint = modelConfig.BaseURL
	base.Model = modelConfig.ModelID
	if modelConfig.MaxOutputTokens > 0 {
		base.MaxTokens = modelConfig.MaxOutputTokens
	}
	if modelConfig.Temperature > 0 {
		base.Temperature = modelConfig.Temperature
	}
	if modelConfig.Timeout > 0 {
		base.Timeout = time.Duration(modelConfig.Timeout) * time.Second
	}
	if modelConfig.MaxRetries >= 0 {
		base.MaxRetries = modelConfig.MaxRetries
	}
	return base
}

func requireKey(modelConfig config.ModelConfig, base providers.BaseConfig) error {
	if base.APIKey != "" {
		return nil
	}
	hint := "key"
	if modelConfig.KeyEnv != "" {
		hint = modelConfig.KeyEnv
	}
	return providers.NewError(providers.ErrCodeConfig,
		fmt.Sprintf("model %s: api key is empty, set %s", modelConfig.Name, hint))
}

// createOpenAIProvider 创建 OpenAI 提供商，Anthropic 走同一个 SDK
func (f *ProviderFactory) createOpenAIProvider(modelConfig config.ModelConfig) (providers.TranslationProvider, error) {
	cfg := openai.Config{BaseConfig: baseConfig(modelConfig)}
	if err := requireKey(modelConfig, cfg.BaseConfig); err != nil {
		return nil, err
	}
	if modelConfig.APIType == config.APITypeAnthropic && cfg.APIEndpoint == "" {
		cfg.APIEndpoint = AnthropicBaseURL
	}
	return openai.New(cfg), nil
}

// createCompatProvider 创建 OpenAI 兼容提供商，本地服务可以不带密钥
func (f *ProviderFactory) createCompatProvider(modelConfig config.ModelConfig) (providers.TranslationProvider, error) {
	cfg := compat.DefaultConfig()
	cfg.BaseConfig = baseConfig(modelConfig)
	cfg.Name = modelConfig.Name
	if cfg.APIEndpoint == "" {
		return nil, providers.NewError(providers.ErrCodeConfig,
			fmt.Sprintf("model %s: base_url is required for openai-compatible endpoints", modelConfig.Name))
	}
	return compat.New(cfg, f.logger), nil
}

// createGeminiProvider 创建 Gemini 提供商
func (f *ProviderFactory) createGeminiProvider(ctx context.Context, modelConfig config.ModelConfig) (providers.TranslationProvider, error) {
	cfg := gemini.DefaultConfig()
	cfg.BaseConfig = baseConfig(modelConfig)
	if err := requireKey(modelConfig, cfg.BaseConfig); err != nil {
		return nil, err
	}
	return gemini.New(ctx, cfg)
}
