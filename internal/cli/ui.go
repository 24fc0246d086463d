package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-md-translator/internal/render"
	providerstats "github.com/nerdneilsfield/go-md-translator/pkg/providers/stats"
	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// 文件名列的最大显示宽度
const nameColumnWidth = 40

// fitName 按显示宽度截断文件名，宽字符按两列计算
func fitName(name string, width int) string {
	if runewidth.StringWidth(name) <= width {
		return name
	}
	return runewidth.Truncate(name, width, "…")
}

func newTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.Style().Title.Format = text.FormatDefault
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

func formatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// printForecast 打印每个文件的预估和预算检查结果
func printForecast(w io.Writer, f *pipeline.Forecast, budget float64, langPair, model string) {
	tw := newTable(w, fmt.Sprintf("Forecast: %s, %s", langPair, model))
	tw.AppendHeader(table.Row{"File", "Chars", "Chunks", "Est. tokens in/out", "Est. cost", "Est. time"})

	var chunks, in, out int
	for _, ff := range f.Files {
		tw.AppendRow(table.Row{
			fitName(ff.Name, nameColumnWidth),
			ff.Chars,
			ff.Chunks,
			fmt.Sprintf("%d / %d", ff.EstInputTokens, ff.EstOutputTokens),
			formatUSD(ff.EstCost),
			formatElapsed(ff.EstTime),
		})
		chunks += ff.Chunks
		in += ff.EstInputTokens
		out += ff.EstOutputTokens
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("Total (%d files)", len(f.Files)),
		f.TotalChars,
		chunks,
		fmt.Sprintf("%d / %d", in, out),
		formatUSD(f.TotalCost),
		formatElapsed(f.TotalTime),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()

	if budget <= 0 {
		return
	}
	if remaining, ok := f.Budget(budget); ok {
		fmt.Fprintf(w, "Budget %s, about %s left after this run.\n", formatUSD(budget), formatUSD(remaining))
	} else {
		fmt.Fprintf(w, "Budget %s is short by about %s; translation stops before the file that would exceed it.\n",
			formatUSD(budget), formatUSD(-remaining))
	}
}

// runSummary 运行结束时展示的数据
type runSummary struct {
	LangPair   string
	Model      string
	TotalFiles int
	Chars      int
	State      *pipeline.RunState
	Result     *pipeline.RunResult
	Elapsed    time.Duration
	Outputs    *render.Result
}

// printSummary 打印运行总结、每个文件的状态和输出文件
func printSummary(w io.Writer, s runSummary) {
	lang := config.LookupLanguage(s.LangPair)

	tw := newTable(w, "Summary")
	tw.AppendRow(table.Row{"Files translated", fmt.Sprintf("%d / %d", s.State.FilesOK, s.TotalFiles)})
	tw.AppendRow(table.Row{"Direction", fmt.Sprintf("%s → %s", lang.Source, lang.Target)})
	tw.AppendRow(table.Row{"Model", s.Model})
	tw.AppendRow(table.Row{"Characters", s.Chars})
	tw.AppendRow(table.Row{"Tokens in/out", fmt.Sprintf("%d / %d", s.State.InputTokens, s.State.OutputTokens)})
	tw.AppendRow(table.Row{"Cost", formatUSD(s.State.SpentBudget)})
	tw.AppendRow(table.Row{"Elapsed", formatElapsed(s.Elapsed)})
	if s.Result.StopReason != nil {
		tw.AppendRow(table.Row{"Stopped", s.Result.StopReason.Error()})
	}
	tw.Render()

	if len(s.Result.Files) > 0 {
		ft := newTable(w, "")
		ft.AppendHeader(table.Row{"File", "Chunks", "Cached", "Cost", "Status"})
		for _, fr := range s.Result.Files {
			ft.AppendRow(table.Row{
				fitName(fr.File, nameColumnWidth),
				fr.Chunks,
				fr.CachedChunks,
				formatUSD(fr.Cost),
				fr.StatusText(),
			})
		}
		ft.Render()
	}

	if s.Outputs == nil {
		return
	}
	for _, f := range s.Outputs.Files {
		fmt.Fprintf(w, "  %-5s %s\n", f.Format, f.Path)
	}
	for _, f := range s.Outputs.Skipped {
		fmt.Fprintf(w, "  %-5s skipped\n", f)
	}
	for _, e := range s.Outputs.Errors {
		fmt.Fprintf(w, "  error %s\n", e.Error())
	}
}

// printProviderStats 打印提供商的请求统计
func printProviderStats(w io.Writer, snapshot []providerstats.ProviderStats) {
	tw := newTable(w, "Requests")
	tw.AppendHeader(table.Row{"Provider", "Model", "Requests", "Failed", "Success", "Avg latency"})
	for _, ps := range snapshot {
		tw.AppendRow(table.Row{
			ps.ProviderName,
			ps.ModelName,
			ps.TotalRequests,
			ps.FailedRequests,
			fmt.Sprintf("%.0f%%", ps.SuccessRate()*100),
			formatElapsed(ps.AverageLatency),
		})
	}
	tw.Render()
}

// chunkProgress 包装分块翻译器，每完成一个分块推进一次进度条
type chunkProgress struct {
	next pipeline.ChunkTranslator
	bar  *pterm.ProgressbarPrinter
}

func newChunkProgress(next pipeline.ChunkTranslator, total int, w io.Writer) *chunkProgress {
	cp := &chunkProgress{next: next}
	if total <= 0 {
		return cp
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Translating").
		WithWriter(w).
		Start()
	if err == nil {
		cp.bar = bar
	}
	return cp
}

// Translate 实现 pipeline.ChunkTranslator
func (cp *chunkProgress) Translate(ctx context.Context, chunk translation.Chunk) translation.TranslatedChunk {
	if cp.bar != nil {
		cp.bar.UpdateTitle(fmt.Sprintf("%s %d/%d", fitName(chunk.OwnerFile, 24), chunk.Index, chunk.Total))
	}
	tc := cp.next.Translate(ctx, chunk)
	if cp.bar != nil {
		cp.bar.Increment()
	}
	return tc
}

func (cp *chunkProgress) stop() {
	if cp.bar != nil && cp.bar.IsActive {
		_, _ = cp.bar.Stop()
	}
}

func interactiveConfirm(prompt string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
}
