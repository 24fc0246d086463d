package translation

import (
	"context"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// 模型偶尔会把整段译文包进 ```markdown 围栏，闭栏必须与开栏长度一致
var markdownWrapper = regexp2.MustCompile("(?s)^\\s*(`{3,})[ \\t]*(?i:markdown|md)[ \\t]*\\r?\\n(.*?)\\r?\\n\\1\\s*$", regexp2.None)

// StripMarkdownWrapper 去掉包裹整段回复的 ```markdown 围栏
func StripMarkdownWrapper(text string) string {
	m, err := markdownWrapper.FindStringMatch(text)
	if err != nil || m == nil {
		return text
	}
	return m.GroupByNumber(2).String()
}

// InvokerConfig 调用参数
type InvokerConfig struct {
	ModelID     string
	LangPair    string
	MaxTokens   int
	Temperature float64
}

// Invoker 把分块交给翻译服务并整理结果
type Invoker struct {
	provider     providers.TranslationProvider
	prompts      *PromptBuilder
	config       InvokerConfig
	cache        *ChunkCache
	logger       *zap.Logger
	systemPrompt string
}

// NewInvoker 创建调用器，cache 可以为 nil
func NewInvoker(provider providers.TranslationProvider, prompts *PromptBuilder, config InvokerConfig, cache *ChunkCache, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		provider:     provider,
		prompts:      prompts,
		config:       config,
		cache:        cache,
		logger:       logger,
		systemPrompt: prompts.BuildSystemPrompt(),
	}
}

// SystemPrompt 返回本次运行使用的系统提示词
func (inv *Invoker) SystemPrompt() string {
	return inv.systemPrompt
}

// Translate 翻译一个分块。失败时返回 Status 为 error 的结果，Err 中带有文件和分块位置。
func (inv *Invoker) Translate(ctx context.Context, chunk Chunk) TranslatedChunk {
	result := TranslatedChunk{
		OwnerFile: chunk.OwnerFile,
		Index:     chunk.Index,
		Total:     chunk.Total,
	}

	var key string
	if inv.cache != nil {
		key = GenerateCacheKey(CacheKeyComponents{
			Model:        inv.config.ModelID,
			LangPair:     inv.config.LangPair,
			SystemPrompt: inv.systemPrompt,
			Text:         chunk.Text,
			MaxTokens:    inv.config.MaxTokens,
		})
		if cached, ok := inv.cache.Get(key); ok {
			inv.logger.Debug("分块命中缓存",
				zap.String("file", chunk.OwnerFile),
				zap.Int("chunk", chunk.Index))
			result.Text = cached.Text
			result.InputTokens = cached.InputTokens
			result.OutputTokens = cached.OutputTokens
			result.Status = StatusOK
			result.Cached = true
			return result
		}
	}

	req := &providers.ProviderRequest{
		SystemPrompt: inv.systemPrompt,
		UserPrompt:   inv.prompts.BuildUserPrompt(chunk),
		MaxTokens:    inv.config.MaxTokens,
		Temperature:  inv.config.Temperature,
		Metadata: map[string]interface{}{
			providers.MetadataSourceText: chunk.Text,
			"file":                       chunk.OwnerFile,
			"chunk":                      chunk.Index,
		},
	}

	start := time.Now()
	resp, err := inv.provider.Translate(ctx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		inv.logger.Error("分块翻译失败",
			zap.String("file", chunk.OwnerFile),
			zap.Int("chunk", chunk.Index),
			zap.Int("total", chunk.Total),
			zap.Error(err))
		result.Status = StatusError
		result.Err = NewChunkError(chunk, err)
		return result
	}

	result.Text = StripMarkdownWrapper(resp.Text)
	result.InputTokens = resp.TokensIn
	result.OutputTokens = resp.TokensOut
	result.Status = StatusOK

	inv.logger.Debug("分块翻译完成",
		zap.String("file", chunk.OwnerFile),
		zap.Int("chunk", chunk.Index),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Duration("elapsed", time.Since(start)))

	if inv.cache != nil {
		if err := inv.cache.Set(key, CachedTranslation{
			Text:         result.Text,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
		}); err != nil {
			inv.logger.Warn("写入缓存失败", zap.Error(err))
		}
	}
	return result
}
