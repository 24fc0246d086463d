package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/pkg/formats"
	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// 默认请求间隔
const (
	DefaultChunkDelay = time.Second
	DefaultFileDelay  = 2 * time.Second
)

// SourceFile 待翻译的源文件
type SourceFile struct {
	Path string
	Name string
	Text string
}

// ChunkTranslator 翻译单个分块，*translation.Invoker 实现了该接口
type ChunkTranslator interface {
	Translate(ctx context.Context, chunk translation.Chunk) translation.TranslatedChunk
}

// FileResult 单个文件的翻译结果
type FileResult struct {
	File         string             `json:"file"`
	Path         string             `json:"path"`
	SourceChars  int                `json:"source_chars"`
	Chunks       int                `json:"chunks"`
	CachedChunks int                `json:"cached_chunks"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	Cost         float64            `json:"cost"`
	Status       translation.Status `json:"status"`
	Err          error              `json:"-"`
	Text         string             `json:"-"`
	OutputPath   string             `json:"output_path,omitempty"`
}

// OK 是否翻译成功
func (r FileResult) OK() bool {
	return r.Status == translation.StatusOK
}

// StatusText 返回用于展示的状态，错误时带上原因
func (r FileResult) StatusText() string {
	if r.Status == translation.StatusError && r.Err != nil {
		return fmt.Sprintf("error: %v", r.Err)
	}
	return string(r.Status)
}

// RunResult 一次运行的结果
type RunResult struct {
	Files []FileResult
	// StopReason 提前停止的原因：ErrInterrupted 或 ErrBudgetExceeded
	StopReason error
	Elapsed    time.Duration
}

// Succeeded 返回成功的文件结果
func (r *RunResult) Succeeded() []FileResult {
	var ok []FileResult
	for _, f := range r.Files {
		if f.OK() {
			ok = append(ok, f)
		}
	}
	return ok
}

// Options 控制循环参数
type Options struct {
	ChunkDelay time.Duration
	FileDelay  time.Duration
	// Budget 美元，0 表示不限制
	Budget       float64
	Pricing      translation.Pricing
	SystemPrompt string
	// PerFileDir 非空时把每个成功文件的译文写到 <PerFileDir>/<stem>.md
	PerFileDir string
}

// Pipeline 顺序翻译文件和分块
type Pipeline struct {
	chunker    *translation.Chunker
	translator ChunkTranslator
	state      *RunState
	opts       Options
	post       *formats.MarkdownPostProcessor
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New 创建控制循环
func New(chunker *translation.Chunker, translator ChunkTranslator, state *RunState, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = NewRunState()
	}
	return &Pipeline{
		chunker:    chunker,
		translator: translator,
		state:      state,
		opts:       opts,
		post:       formats.NewMarkdownPostProcessor(logger),
		logger:     logger,
		sleep:      sleepContext,
	}
}

// State 返回运行状态
func (p *Pipeline) State() *RunState {
	return p.state
}

// Forecast 估算 files 的费用和耗时
func (p *Pipeline) Forecast(files []SourceFile) *Forecast {
	return NewForecast(files, p.chunker, p.opts.SystemPrompt, p.opts.Pricing)
}

// Run 依次翻译 files。单个文件失败不影响其他文件；中断或预算不足时停止开始新文件，
// 原因记录在 RunResult.StopReason。只有 ctx 被取消时返回错误。
func (p *Pipeline) Run(ctx context.Context, files []SourceFile) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{}
	defer func() { res.Elapsed = time.Since(start) }()

	var forecast *Forecast
	if p.opts.Budget > 0 {
		forecast = p.Forecast(files)
	}

	for i, file := range files {
		if p.state.Interrupted() {
			p.logger.Warn("已按用户要求停止", zap.Int("remaining_files", len(files)-i))
			res.StopReason = translation.ErrInterrupted
			p.state.FilesSkipped += len(files) - i
			break
		}

		if forecast != nil {
			est := forecast.Files[i].EstCost
			if p.state.SpentBudget+est > p.opts.Budget {
				p.logger.Warn("预算不足，停止翻译",
					zap.String("file", file.Name),
					zap.Float64("spent", p.state.SpentBudget),
					zap.Float64("estimated", est),
					zap.Float64("budget", p.opts.Budget))
				res.StopReason = translation.ErrBudgetExceeded
				p.state.FilesSkipped += len(files) - i
				break
			}
		}

		p.logger.Info("翻译文件",
			zap.Int("index", i+1),
			zap.Int("total", len(files)),
			zap.String("file", file.Name),
			zap.Int("chars", utf8.RuneCountInString(file.Text)))

		fr := p.translateFile(ctx, file)
		p.state.addUsage(fr.InputTokens, fr.OutputTokens, fr.Cost)

		switch fr.Status {
		case translation.StatusOK:
			p.state.FilesOK++
			p.writePerFile(&fr)
			p.logger.Info("文件翻译完成",
				zap.String("file", fr.File),
				zap.Int("tokens_in", fr.InputTokens),
				zap.Int("tokens_out", fr.OutputTokens),
				zap.Float64("cost", fr.Cost))
		case translation.StatusInterrupted:
			p.state.FilesSkipped++
			p.logger.Warn("文件翻译被中断，不计入结果", zap.String("file", fr.File))
		default:
			p.state.FilesFailed++
			p.logger.Error("文件翻译失败", zap.String("file", fr.File), zap.Error(fr.Err))
		}
		res.Files = append(res.Files, fr)

		if err := ctx.Err(); err != nil {
			return res, err
		}
		if i < len(files)-1 && !p.state.Interrupted() {
			if err := p.sleep(ctx, p.opts.FileDelay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// translateFile 翻译一个文件的全部分块，任一分块失败即放弃该文件
func (p *Pipeline) translateFile(ctx context.Context, file SourceFile) FileResult {
	chunks := p.chunker.ChunkFile(file.Name, file.Text)
	fr := FileResult{
		File:        file.Name,
		Path:        file.Path,
		SourceChars: utf8.RuneCountInString(file.Text),
		Chunks:      len(chunks),
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if p.state.Interrupted() {
			fr.Status = translation.StatusInterrupted
			fr.Err = translation.ErrInterrupted
			break
		}
		if chunk.IsPartial() {
			p.logger.Info("翻译分块",
				zap.String("file", file.Name),
				zap.Int("chunk", chunk.Index),
				zap.Int("total", chunk.Total),
				zap.Int("chars", utf8.RuneCountInString(chunk.Text)))
		}

		tc := p.translator.Translate(ctx, chunk)
		if !tc.OK() {
			fr.Status = translation.StatusError
			fr.Err = tc.Err
			if fr.Err == nil {
				fr.Err = translation.NewChunkError(chunk, translation.ErrEmptyResponse)
			}
			break
		}

		fr.InputTokens += tc.InputTokens
		fr.OutputTokens += tc.OutputTokens
		if tc.Cached {
			fr.CachedChunks++
		}
		parts = append(parts, tc.Text)

		if i < len(chunks)-1 && !tc.Cached && !p.state.Interrupted() {
			if err := p.sleep(ctx, p.opts.ChunkDelay); err != nil {
				fr.Status = translation.StatusInterrupted
				fr.Err = err
				break
			}
		}
	}

	// 已完成分块的费用照常计入，即使文件最终被放弃
	fr.Cost = p.opts.Pricing.Cost(fr.InputTokens, fr.OutputTokens)
	if fr.Status == "" {
		fr.Status = translation.StatusOK
		fr.Text = strings.Join(parts, "\n\n")
	}
	return fr
}

func (p *Pipeline) writePerFile(fr *FileResult) {
	if p.opts.PerFileDir == "" {
		return
	}
	if err := os.MkdirAll(p.opts.PerFileDir, 0o755); err != nil {
		p.logger.Warn("创建单文件输出目录失败", zap.Error(err))
		return
	}

	base := filepath.Base(fr.File)
	path := filepath.Join(p.opts.PerFileDir, strings.TrimSuffix(base, filepath.Ext(base))+".md")
	if err := os.WriteFile(path, []byte(p.post.ProcessMarkdown(fr.Text)), 0o644); err != nil {
		p.logger.Warn("写入单文件译文失败", zap.String("path", path), zap.Error(err))
		return
	}
	fr.OutputPath = path
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
