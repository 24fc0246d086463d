package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/extract"
	"github.com/nerdneilsfield/go-md-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-md-translator/internal/render"
	"github.com/nerdneilsfield/go-md-translator/internal/stats"
	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// runTranslate 执行根命令
func runTranslate(cmd *cobra.Command, args []string) error {
	input := inputPath
	if len(args) == 1 {
		input = args[0]
	}
	if input == "" {
		return fmt.Errorf("no input given: pass a file or folder, or --input")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	s := &session{
		cfg:       cfg,
		logger:    log,
		out:       cmd.OutOrStdout(),
		filter:    fileFilter,
		dryRun:    dryRun,
		assumeYes: assumeYes,
		confirm:   confirmPrompt,
		progress:  true,
	}
	return s.run(cmd.Context(), input)
}

// session 一次翻译运行所需的全部协作者
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	filter    string
	dryRun    bool
	assumeYes bool
	progress  bool

	confirm   func(prompt string) (bool, error)
	forceExit func(int)
	now       func() time.Time
}

func (s *session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// run 发现、提取、预估、翻译、组装、渲染并记录历史
func (s *session) run(ctx context.Context, input string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := s.cfg

	paths, err := extract.Discover(input)
	if err != nil {
		return err
	}
	paths = extract.FilterFiles(paths, s.filter)
	if len(paths) == 0 {
		return fmt.Errorf("%w: nothing matches %q", translation.ErrNoInputFiles, s.filter)
	}

	sources := s.loadSources(paths)
	if len(sources) == 0 {
		return fmt.Errorf("%w: all inputs are empty", translation.ErrNoInputFiles)
	}

	mc, err := cfg.ActiveModelConfig()
	if err != nil {
		return err
	}

	prompts, err := s.buildPrompts()
	if err != nil {
		return err
	}
	systemPrompt := prompts.BuildSystemPrompt()
	chunker := translation.NewChunker(cfg.ChunkSettings())
	pricing := mc.Pricing()

	forecast := pipeline.NewForecast(sources, chunker, systemPrompt, pricing)
	printForecast(s.out, forecast, cfg.Budget, cfg.LangPair, mc.ModelID)

	if s.dryRun {
		s.logger.Info("试运行，不调用翻译服务")
		return nil
	}

	if !s.assumeYes && s.confirm != nil {
		ok, err := s.confirm("Start translation?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
	}

	providerFactory := factory.New(s.logger)
	provider, err := providerFactory.CreateProvider(ctx, mc)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	var cache *translation.ChunkCache
	if cfg.UseCache {
		cache = translation.NewChunkCache(cfg.CacheDir, 0)
	}

	invoker := translation.NewInvoker(provider, prompts, translation.InvokerConfig{
		ModelID:     mc.ModelID,
		LangPair:    cfg.LangPair,
		MaxTokens:   mc.MaxOutputTokens,
		Temperature: mc.Temperature,
	}, cache, s.logger)

	var translator pipeline.ChunkTranslator = invoker
	if s.progress {
		bar := newChunkProgress(invoker, totalChunks(forecast), s.out)
		defer bar.stop()
		translator = bar
	}

	var perFileDir string
	if cfg.WritePerFile {
		perFileDir = filepath.Join(cfg.OutputDir, "files")
	}

	state := pipeline.NewRunState()
	stopWatching := pipeline.WatchInterrupts(ctx, state, s.logger, s.forceExit)
	defer stopWatching()

	p := pipeline.New(chunker, translator, state, pipeline.Options{
		ChunkDelay:   cfg.ChunkDelay,
		FileDelay:    cfg.FileDelay,
		Budget:       cfg.Budget,
		Pricing:      pricing,
		SystemPrompt: systemPrompt,
		PerFileDir:   perFileDir,
	}, s.logger)

	started := s.clock()
	res, runErr := p.Run(ctx, sources)
	if res == nil {
		return runErr
	}

	sum := runSummary{
		LangPair:   cfg.LangPair,
		Model:      mc.ModelID,
		TotalFiles: len(sources),
		State:      state,
		Result:     res,
		Elapsed:    res.Elapsed,
	}
	for _, src := range sources {
		sum.Chars += utf8.RuneCountInString(src.Text)
	}

	var outErr error
	if len(res.Succeeded()) > 0 {
		sum.Outputs, outErr = s.writeOutputs(res, paths)
	}
	printSummary(s.out, sum)
	if ps := providerFactory.Stats().Snapshot(); len(ps) > 0 {
		printProviderStats(s.out, ps)
	}

	s.recordHistory(sum, paths, started, cache)

	switch {
	case runErr != nil:
		return runErr
	case outErr != nil:
		return outErr
	case len(res.Succeeded()) == 0 && res.StopReason != nil:
		return fmt.Errorf("%w: %w", translation.ErrNoTranslations, res.StopReason)
	case len(res.Succeeded()) == 0:
		return translation.ErrNoTranslations
	}
	return nil
}

// loadSources 提取所有输入文件，跳过失败和空白的文件
func (s *session) loadSources(paths []string) []pipeline.SourceFile {
	extractor := extract.NewExtractor(s.cfg.InputEncoding, s.logger)

	sources := make([]pipeline.SourceFile, 0, len(paths))
	for _, path := range paths {
		doc, err := extractor.Extract(path)
		if err != nil {
			s.logger.Error("读取输入文件失败", zap.String("file", path), zap.Error(err))
			continue
		}
		if strings.TrimSpace(doc.Text) == "" {
			s.logger.Warn("输入文件为空，跳过", zap.String("file", doc.Name))
			continue
		}

		text := doc.Text
		if s.cfg.Preformat && doc.Format == extract.FormatMarkdown {
			text = formats.PreformatMarkdown(doc.Name, text, s.logger)
		}
		if n := formats.CountImages(text); n > 0 {
			s.logger.Info("发现图片引用",
				zap.String("file", doc.Name),
				zap.Int("count", n),
				zap.Bool("translate_alt", s.cfg.TranslateImages))
		}

		sources = append(sources, pipeline.SourceFile{Path: doc.Path, Name: doc.Name, Text: text})
	}
	return sources
}

// buildPrompts 读取术语表和规则文件，构建提示词
func (s *session) buildPrompts() (*translation.PromptBuilder, error) {
	cfg := s.cfg

	glossary, err := config.LoadGlossary(cfg.GlossaryFile)
	if err != nil {
		return nil, fmt.Errorf("load glossary: %w", err)
	}
	if len(glossary) > 0 {
		s.logger.Info("已加载术语表", zap.Int("terms", len(glossary)))
	}

	translateRules, err := config.ReadOptionalFile(cfg.TranslateSpecFile)
	if err != nil {
		return nil, fmt.Errorf("read translation rules: %w", err)
	}
	editorialRules, err := config.ReadOptionalFile(cfg.HumanizerSpecFile)
	if err != nil {
		return nil, fmt.Errorf("read editorial rules: %w", err)
	}

	lang := config.LookupLanguage(cfg.LangPair)
	return translation.NewPromptBuilder(lang.Source, lang.Target).
		WithGlossary(glossary).
		WithRules(translateRules, editorialRules).
		WithTranslateImages(cfg.TranslateImages), nil
}

// writeOutputs 组装成功的文件并生成所有输出格式
func (s *session) writeOutputs(res *pipeline.RunResult, paths []string) (*render.Result, error) {
	targetCode := config.TargetCode(s.cfg.LangPair)

	md, err := pipeline.NewAssembler(targetCode, s.logger).Assemble(res.Files)
	if err != nil {
		return nil, err
	}

	base := render.BaseName(s.cfg.OutputName, paths)
	gen := render.NewGenerator(s.cfg.FontDir, s.logger)
	return gen.Generate(md, s.cfg.OutputDir, base, s.cfg.Formats, render.Options{
		Title: pipeline.ExtractTitle(md, base),
		Lang:  targetCode,
		Now:   s.now,
	})
}

// recordHistory 把本次运行追加到历史数据库，失败只记日志
func (s *session) recordHistory(sum runSummary, paths []string, started time.Time, cache *translation.ChunkCache) {
	if s.cfg.HistoryFile == "" {
		return
	}
	db, err := stats.NewDatabase(s.cfg.HistoryFile, s.logger)
	if err != nil {
		s.logger.Warn("打开历史记录失败", zap.Error(err))
		return
	}

	record := &stats.RunRecord{
		Timestamp:      started,
		LangPair:       sum.LangPair,
		Model:          sum.Model,
		FilesOK:        sum.State.FilesOK,
		FilesFailed:    sum.State.FilesFailed,
		FilesSkipped:   sum.State.FilesSkipped,
		CharacterCount: sum.Chars,
		InputTokens:    sum.State.InputTokens,
		OutputTokens:   sum.State.OutputTokens,
		Cost:           sum.State.SpentBudget,
		Duration:       sum.Elapsed,
		Status:         runStatus(sum),
	}
	for _, p := range paths {
		record.Inputs = append(record.Inputs, filepath.Base(p))
	}
	for _, fr := range sum.Result.Files {
		record.CachedChunks += fr.CachedChunks
		if fr.Err != nil && record.ErrorMessage == "" && fr.Status == translation.StatusError {
			record.ErrorMessage = fr.Err.Error()
		}
	}
	if sum.Outputs != nil {
		for _, f := range sum.Outputs.Files {
			record.Outputs = append(record.Outputs, f.Path)
		}
	}

	if cache != nil {
		cs := cache.Stats()
		db.RecordCacheUsage(cs.Hits, cs.Misses)
	}
	if err := db.AddRun(record); err != nil {
		s.logger.Warn("保存历史记录失败", zap.Error(err))
	}
}

// runStatus 把运行结果归类为历史记录的状态
func runStatus(sum runSummary) string {
	ok := sum.State.FilesOK
	switch {
	case errors.Is(sum.Result.StopReason, translation.ErrInterrupted):
		return stats.RunInterrupted
	case errors.Is(sum.Result.StopReason, translation.ErrBudgetExceeded):
		return stats.RunBudget
	case ok == 0:
		return stats.RunFailed
	case ok < sum.TotalFiles:
		return stats.RunPartial
	}
	return stats.RunCompleted
}

func totalChunks(f *pipeline.Forecast) int {
	n := 0
	for _, ff := range f.Files {
		n += ff.Chunks
	}
	return n
}

// confirmPrompt 在终端询问是否继续，标准输入不是终端时要求使用 --yes
func confirmPrompt(prompt string) (bool, error) {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		return false, errors.New("stdin is not a terminal, pass --yes to start without confirmation")
	}
	return interactiveConfirm(prompt)
}
