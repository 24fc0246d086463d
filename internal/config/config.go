package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// 支持的 API 类型
const (
	APITypeAnthropic        = "anthropic"
	APITypeOpenAI           = "openai"
	APITypeOpenAICompatible = "openai-compatible"
	APITypeGemini           = "gemini"
	APITypeRaw              = "raw"
)

// DefaultModelName 默认模型配置名
const DefaultModelName = "claude-sonnet"

// SupportedFormats 支持的输出格式，按生成顺序
var SupportedFormats = []string{"md", "html", "pdf", "docx"}

// ModelConfig 保存模型配置
type ModelConfig struct {
	Name             string  `mapstructure:"name"`
	ModelID          string  `mapstructure:"model_id"`
	APIType          string  `mapstructure:"api_type"`
	BaseURL          string  `mapstructure:"base_url"`
	Key              string  `mapstructure:"key"`
	KeyEnv           string  `mapstructure:"key_env"` // 保存 API 密钥的环境变量名
	MaxOutputTokens  int     `mapstructure:"max_output_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
	InputTokenPrice  float64 `mapstructure:"input_token_price"`  // 1M Token 的价格
	OutputTokenPrice float64 `mapstructure:"output_token_price"` // 1M Token 的价格
	Timeout          int     `mapstructure:"timeout"`            // 单次请求超时（秒）
	MaxRetries       int     `mapstructure:"max_retries"`
}

// APIKey 返回密钥，未直接配置时读取 KeyEnv 指向的环境变量
func (m ModelConfig) APIKey() string {
	if m.Key != "" {
		return m.Key
	}
	if m.KeyEnv != "" {
		return os.Getenv(m.KeyEnv)
	}
	return ""
}

// Pricing 返回模型价格，未配置时使用默认价格
func (m ModelConfig) Pricing() translation.Pricing {
	p := translation.DefaultPricing()
	if m.InputTokenPrice > 0 {
		p.InputPerMillion = m.InputTokenPrice
	}
	if m.OutputTokenPrice > 0 {
		p.OutputPerMillion = m.OutputTokenPrice
	}
	return p
}

// ChunkConfig 分块配置
type ChunkConfig struct {
	MaxChars      int  `mapstructure:"max_chars"`
	ProtectFences bool `mapstructure:"protect_fences"`
}

// Config 保存翻译器的所有配置
type Config struct {
	LangPair     string                 `mapstructure:"lang_pair"`
	ActiveModel  string                 `mapstructure:"active_model"`
	ModelConfigs map[string]ModelConfig `mapstructure:"models"`
	Chunk        ChunkConfig            `mapstructure:"chunk"`
	ChunkDelay   time.Duration          `mapstructure:"chunk_delay"` // 分块之间的间隔
	FileDelay    time.Duration          `mapstructure:"file_delay"`  // 文件之间的间隔
	Budget       float64                `mapstructure:"budget"`      // 美元，0 表示不限制
	Formats      []string               `mapstructure:"formats"`
	OutputDir    string                 `mapstructure:"output_dir"`
	OutputName   string                 `mapstructure:"output_name"`

	GlossaryFile      string `mapstructure:"glossary_file"`
	TranslateSpecFile string `mapstructure:"translate_spec_file"`
	HumanizerSpecFile string `mapstructure:"humanizer_spec_file"`
	FontDir           string `mapstructure:"font_dir"`

	TranslateImages bool   `mapstructure:"translate_images"`
	Preformat       bool   `mapstructure:"preformat"`    // 分块前用 markdownfmt 整理源文档
	UseCache        bool   `mapstructure:"use_cache"`
	CacheDir        string `mapstructure:"cache_dir"`
	InputEncoding   string `mapstructure:"input_encoding"` // 空表示自动检测
	WritePerFile    bool   `mapstructure:"write_per_file"`
	HistoryFile     string `mapstructure:"history_file"`

	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".translator")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，例如 TRANSLATOR_CHUNK_MAX_CHARS
	v.SetEnvPrefix("TRANSLATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 模型名可能带点（如 gpt-4.1），不能按路径取值，逐个解码
	models, err := decodeModels(v.Get("models"))
	if err != nil {
		return nil, err
	}
	config.ModelConfigs = models

	config.applyEnvOverrides()
	config.normalize()
	return &config, nil
}

// decodeModels 逐个解码 models 下的模型配置，并补齐默认值
func decodeModels(raw interface{}) (map[string]ModelConfig, error) {
	models := DefaultModelConfigs()

	entries, ok := raw.(map[string]interface{})
	if !ok {
		return models, nil
	}

	for name, value := range entries {
		fields, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("model %q: expected a table", name)
		}

		sub := viper.New()
		setModelDefaults(sub)
		if err := sub.MergeConfigMap(fields); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}

		var mc ModelConfig
		if base, exists := models[name]; exists {
			mc = base
		}
		if err := sub.Unmarshal(&mc); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		if mc.Name == "" {
			mc.Name = name
		}
		models[name] = mc
	}
	return models, nil
}

// applyEnvOverrides 应用不带前缀的兼容环境变量
func (c *Config) applyEnvOverrides() {
	if model := os.Getenv("TRANSLATE_MODEL"); model != "" {
		if mc, ok := c.ModelConfigs[c.ActiveModel]; ok {
			mc.ModelID = model
			c.ModelConfigs[c.ActiveModel] = mc
		}
	}
}

// normalize 整理格式列表等字段
func (c *Config) normalize() {
	c.LangPair = strings.ToLower(strings.TrimSpace(c.LangPair))
	formats, err := ParseFormats(strings.Join(c.Formats, ","))
	if err == nil {
		c.Formats = formats
	}
	if c.CacheDir == "" {
		c.CacheDir = getDefaultCacheDir()
	}
}

// ActiveModelConfig 返回当前使用的模型配置
func (c *Config) ActiveModelConfig() (ModelConfig, error) {
	mc, ok := c.ModelConfigs[c.ActiveModel]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: unknown model %q", translation.ErrInvalidConfig, c.ActiveModel)
	}
	return mc, nil
}

// ChunkSettings 转换为分块器配置
func (c *Config) ChunkSettings() translation.ChunkConfig {
	return translation.ChunkConfig{
		MaxChars:      c.Chunk.MaxChars,
		ProtectFences: c.Chunk.ProtectFences,
	}
}

// Validate 检查配置
func (c *Config) Validate() error {
	if _, ok := Languages[c.LangPair]; !ok {
		return fmt.Errorf("%w: unsupported language pair %q", translation.ErrInvalidConfig, c.LangPair)
	}
	if c.Chunk.MaxChars <= 0 {
		return fmt.Errorf("%w: chunk.max_chars must be positive", translation.ErrInvalidConfig)
	}
	if c.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", translation.ErrInvalidConfig)
	}
	if c.ChunkDelay < 0 || c.FileDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", translation.ErrInvalidConfig)
	}
	if _, err := ParseFormats(strings.Join(c.Formats, ",")); err != nil {
		return err
	}

	mc, err := c.ActiveModelConfig()
	if err != nil {
		return err
	}
	switch mc.APIType {
	case APITypeAnthropic, APITypeOpenAI, APITypeOpenAICompatible, APITypeGemini, APITypeRaw:
	default:
		return fmt.Errorf("%w: model %q has unknown api_type %q", translation.ErrInvalidConfig, mc.Name, mc.APIType)
	}
	if mc.ModelID == "" && mc.APIType != APITypeRaw {
		return fmt.Errorf("%w: model %q has no model_id", translation.ErrInvalidConfig, mc.Name)
	}
	return nil
}

// ParseFormats 解析逗号分隔的格式列表，"all" 表示全部格式
func ParseFormats(spec string) ([]string, error) {
	seen := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		f := strings.ToLower(strings.TrimSpace(part))
		switch f {
		case "":
			continue
		case "all":
			for _, s := range SupportedFormats {
				seen[s] = true
			}
		case "md", "html", "pdf", "docx":
			seen[f] = true
		case "markdown":
			seen["md"] = true
		default:
			return nil, fmt.Errorf("%w: unknown output format %q", translation.ErrInvalidConfig, f)
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: no output format selected", translation.ErrInvalidConfig)
	}

	formats := make([]string, 0, len(seen))
	for _, f := range SupportedFormats {
		if seen[f] {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		LangPair:     "en-ru",
		ActiveModel:  DefaultModelName,
		ModelConfigs: DefaultModelConfigs(),
		Chunk: ChunkConfig{
			MaxChars:      translation.DefaultChunkSize,
			ProtectFences: true,
		},
		ChunkDelay:        time.Second,
		FileDelay:         2 * time.Second,
		Formats:           append([]string(nil), SupportedFormats...),
		OutputDir:         "output",
		GlossaryFile:      "glossary.json",
		TranslateSpecFile: "TRANSLATE.md",
		HumanizerSpecFile: "HUMANIZER.md",
		FontDir:           "fonts",
		WritePerFile:      true,
		UseCache:          false,
		CacheDir:          getDefaultCacheDir(),
		HistoryFile:       defaultHistoryFile(),
		LogLevel:          "info",
	}
}

// getDefaultCacheDir 获取默认缓存目录
func getDefaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(cacheDir, "md-translator")
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".translator", "cache")
	}

	return "./translator-cache"
}

func defaultHistoryFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".translator_history.json"
	}
	return filepath.Join(homeDir, ".translator", "history.json")
}

// DefaultModelConfigs 返回默认模型配置
func DefaultModelConfigs() map[string]ModelConfig {
	return map[string]ModelConfig{
		"claude-sonnet": {
			Name:             "claude-sonnet",
			ModelID:          "claude-sonnet-4-5-20250929",
			APIType:          APITypeAnthropic,
			KeyEnv:           "ANTHROPIC_API_KEY",
			MaxOutputTokens:  16384,
			Temperature:      0.3,
			InputTokenPrice:  3.0,
			OutputTokenPrice: 15.0,
			Timeout:          300,
			MaxRetries:       3,
		},
		"gpt-4o": {
			Name:             "gpt-4o",
			ModelID:          "gpt-4o",
			APIType:          APITypeOpenAI,
			KeyEnv:           "OPENAI_API_KEY",
			MaxOutputTokens:  16384,
			Temperature:      0.3,
			InputTokenPrice:  2.5,
			OutputTokenPrice: 10,
			Timeout:          300,
			MaxRetries:       3,
		},
		"deepseek-chat": {
			Name:             "deepseek-chat",
			ModelID:          "deepseek-chat",
			APIType:          APITypeOpenAICompatible,
			BaseURL:          "https://api.deepseek.com/v1",
			KeyEnv:           "DEEPSEEK_API_KEY",
			MaxOutputTokens:  8192,
			Temperature:      0.3,
			InputTokenPrice:  0.27,
			OutputTokenPrice: 1.1,
			Timeout:          300,
			MaxRetries:       3,
		},
		"gemini-flash": {
			Name:             "gemini-flash",
			ModelID:          "gemini-2.5-flash",
			APIType:          APITypeGemini,
			KeyEnv:           "GEMINI_API_KEY",
			MaxOutputTokens:  16384,
			Temperature:      0.3,
			InputTokenPrice:  0.3,
			OutputTokenPrice: 2.5,
			Timeout:          300,
			MaxRetries:       3,
		},
		"raw": {
			Name:    "raw",
			ModelID: "raw",
			APIType: APITypeRaw,
		},
	}
}

// setModelDefaults 设置单个模型的默认值
func setModelDefaults(v *viper.Viper) {
	v.SetDefault("api_type", APITypeOpenAICompatible)
	v.SetDefault("max_output_tokens", 16384)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("input_token_price", 3.0)
	v.SetDefault("output_token_price", 15.0)
	v.SetDefault("timeout", 300)
	v.SetDefault("max_retries", 3)
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("lang_pair", d.LangPair)
	v.SetDefault("active_model", d.ActiveModel)
	v.SetDefault("chunk.max_chars", d.Chunk.MaxChars)
	v.SetDefault("chunk.protect_fences", d.Chunk.ProtectFences)
	v.SetDefault("chunk_delay", d.ChunkDelay)
	v.SetDefault("file_delay", d.FileDelay)
	v.SetDefault("budget", 0.0)
	v.SetDefault("formats", d.Formats)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("output_name", "")
	v.SetDefault("glossary_file", d.GlossaryFile)
	v.SetDefault("translate_spec_file", d.TranslateSpecFile)
	v.SetDefault("humanizer_spec_file", d.HumanizerSpecFile)
	v.SetDefault("font_dir", d.FontDir)
	v.SetDefault("translate_images", false)
	v.SetDefault("preformat", false)
	v.SetDefault("use_cache", d.UseCache)
	v.SetDefault("cache_dir", "")
	v.SetDefault("input_encoding", "")
	v.SetDefault("write_per_file", d.WritePerFile)
	v.SetDefault("history_file", d.HistoryFile)
	v.SetDefault("debug", false)
	v.SetDefault("log_level", d.LogLevel)
}

// ReadOptionalFile 读取可选的规则文件，不存在时返回空串
func ReadOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
