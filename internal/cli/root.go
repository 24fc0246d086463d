package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/logger"
)

var (
	// 命令行标志变量
	cfgFile         string
	inputPath       string
	langPair        string
	budget          float64
	formatSpec      string
	outputName      string
	outputDir       string
	dryRun          bool
	modelName       string
	assumeYes       bool
	fileFilter      string
	translateImages bool
	debugMode       bool
	logLevel        string
	chunkSize       int
	noCache         bool
	preformat       bool
	protectFences   bool
	glossaryFile    string
	fontDir         string
)

// NewRootCommand 创建根命令，默认执行翻译
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "translator [flags] [input]",
		Short: "Translate Markdown, DOCX and PDF documents with an LLM",
		Long: `translator splits documents into model-sized chunks along their structure,
translates every chunk, then reassembles and repairs the result into clean Markdown
and renders it as md, html, pdf and docx.

The input is a file or a directory (not recursive) with .md, .markdown, .txt,
.docx, .doc or .pdf files.

Examples:
  # Estimate cost only
  translator --dry-run docs/

  # Translate one book to German, HTML and Markdown only
  translator --lang en-de --format md,html book.md

  # Stop before spending more than 5 USD
  translator --budget 5 --yes input/`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTranslate,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.translator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	addTranslateFlags(rootCmd)

	rootCmd.AddCommand(NewNormalizeCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewLanguagesCommand())
	rootCmd.AddCommand(NewStatsCommand())

	return rootCmd
}

// addTranslateFlags 添加翻译相关的标志
func addTranslateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "file or folder to translate")
	flags.StringVarP(&langPair, "lang", "l", "", "language pair (en-ru, en-de, ...)")
	flags.Float64Var(&budget, "budget", 0, "budget limit in USD, 0 means unlimited")
	flags.StringVarP(&formatSpec, "format", "f", "", "output formats: all, md, html, pdf, docx or a comma list")
	flags.StringVarP(&outputName, "output", "o", "", "output base name")
	flags.StringVar(&outputDir, "output-dir", "", "output folder")
	flags.BoolVar(&dryRun, "dry-run", false, "estimate cost only")
	flags.StringVarP(&modelName, "model", "m", "", "model config name or model id")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	flags.StringVar(&fileFilter, "file", "", "translate only files whose name fuzzy-matches this pattern")
	flags.BoolVar(&translateImages, "translate-images", false, "translate image alt text")
	flags.IntVar(&chunkSize, "chunk-size", 0, "maximum characters per chunk")
	flags.BoolVar(&noCache, "no-cache", false, "disable the chunk cache")
	flags.BoolVar(&preformat, "preformat", false, "reformat Markdown sources before chunking")
	flags.BoolVar(&protectFences, "protect-fences", true, "never split inside fenced code blocks")
	flags.StringVar(&glossaryFile, "glossary", "", "glossary file (json, toml or yaml)")
	flags.StringVar(&fontDir, "font-dir", "", "folder with DejaVu fonts for PDF output")
}

// loadConfig 加载配置，应用命令行参数后校验
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := updateConfigFromFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// updateConfigFromFlags 使用命令行参数更新配置，只覆盖显式给出的标志
func updateConfigFromFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.LangPair = strings.ToLower(strings.TrimSpace(langPair))
	}
	if flags.Changed("budget") {
		cfg.Budget = budget
	}
	if flags.Changed("format") {
		formats, err := config.ParseFormats(formatSpec)
		if err != nil {
			return err
		}
		cfg.Formats = formats
	}
	if flags.Changed("output") {
		cfg.OutputName = outputName
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("model") {
		selectModel(cfg, modelName)
	}
	if flags.Changed("translate-images") {
		cfg.TranslateImages = translateImages
	}
	if flags.Changed("chunk-size") {
		cfg.Chunk.MaxChars = chunkSize
	}
	if flags.Changed("no-cache") {
		cfg.UseCache = !noCache
	}
	if flags.Changed("preformat") {
		cfg.Preformat = preformat
	}
	if flags.Changed("protect-fences") {
		cfg.Chunk.ProtectFences = protectFences
	}
	if flags.Changed("glossary") {
		cfg.GlossaryFile = glossaryFile
	}
	if flags.Changed("font-dir") {
		cfg.FontDir = fontDir
	}
	if flags.Changed("debug") {
		cfg.Debug = debugMode
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return nil
}

// selectModel 按配置名选择模型；不是配置名时作为当前模型的 model_id
func selectModel(cfg *config.Config, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := cfg.ModelConfigs[name]; ok {
		cfg.ActiveModel = name
		return
	}
	if mc, ok := cfg.ModelConfigs[cfg.ActiveModel]; ok {
		mc.ModelID = name
		cfg.ModelConfigs[cfg.ActiveModel] = mc
	}
}

// newLogger 根据配置创建日志记录器
func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.Debug {
		return logger.NewLogger(true)
	}
	if cfg.LogLevel != "" {
		if log, err := logger.NewLoggerWithLevel(cfg.LogLevel); err == nil {
			return log
		}
	}
	return logger.NewLogger(false)
}
