package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Visualizer 运行历史可视化器
type Visualizer struct {
	db  *Database
	out io.Writer
}

// NewVisualizer 创建可视化器，输出写入 out
func NewVisualizer(db *Database, out io.Writer) *Visualizer {
	return &Visualizer{db: db, out: out}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgCyan, color.Bold), "Translation History Overview")

	fmt.Fprintln(v.out)
	v.printSection("Overall", [][]string{
		{"Runs", formatNumber(stats.TotalRuns)},
		{"Files", formatNumber(stats.TotalFiles)},
		{"Runs With Errors", formatNumber(stats.TotalErrors)},
		{"Characters", formatNumber(stats.TotalCharacters)},
		{"Tokens (in/out)", formatNumber(stats.TotalInputTokens) + " / " + formatNumber(stats.TotalOutputTokens)},
		{"Total Cost", formatCost(stats.TotalCost)},
		{"Total Duration", formatDuration(stats.TotalDuration)},
		{"Database Created", formatTime(stats.CreatedAt)},
		{"Last Updated", formatTime(stats.LastUpdated)},
	})

	fmt.Fprintln(v.out)
	v.printCacheStats(stats.CacheStats)
}

// ShowLanguagePairs 显示语言对统计
func (v *Visualizer) ShowLanguagePairs() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgMagenta, color.Bold), "Language Pairs")

	if len(stats.LanguagePairs) == 0 {
		fmt.Fprintln(v.out, "No language pair data available.")
		return
	}

	pairs := make([]*LanguagePairStats, 0, len(stats.LanguagePairs))
	for _, pair := range stats.LanguagePairs {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].RunCount != pairs[j].RunCount {
			return pairs[i].RunCount > pairs[j].RunCount
		}
		return pairs[i].LangPair < pairs[j].LangPair
	})

	for _, pair := range pairs {
		fmt.Fprintln(v.out)
		v.printSection(pair.LangPair, [][]string{
			{"Runs", formatNumber(pair.RunCount)},
			{"Files", formatNumber(pair.FileCount)},
			{"Characters", formatNumber(pair.CharacterCount)},
			{"Cost", formatCost(pair.Cost)},
			{"Avg Duration", formatDuration(pair.AverageDuration)},
			{"Last Used", formatTime(pair.LastUsed)},
		})
	}
}

// ShowModels 显示各模型的用量
func (v *Visualizer) ShowModels() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgGreen, color.Bold), "Models")

	if len(stats.Models) == 0 {
		fmt.Fprintln(v.out, "No model data available.")
		return
	}

	names := make([]string, 0, len(stats.Models))
	for name := range stats.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := stats.Models[name]
		fmt.Fprintln(v.out)
		v.printSection(name, [][]string{
			{"Runs", formatNumber(m.RunCount)},
			{"Tokens (in/out)", formatNumber(m.InputTokens) + " / " + formatNumber(m.OutputTokens)},
			{"Cost", formatCost(m.Cost)},
			{"Last Used", formatTime(m.LastUsed)},
		})
	}
}

// ShowRecentRuns 显示最近的运行
func (v *Visualizer) ShowRecentRuns(limit int) {
	records := v.db.GetRecentRuns(limit)

	v.printTitle(color.New(color.FgBlue, color.Bold), fmt.Sprintf("Recent Runs (Last %d)", len(records)))

	if len(records) == 0 {
		fmt.Fprintln(v.out, "No recent runs found.")
		return
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(v.out)
		}

		mark := "✅"
		if record.HasErrors() {
			mark = "❌"
		} else if record.Status != RunCompleted {
			mark = "⚠️"
		}

		title := fmt.Sprintf("%s %s", mark, strings.Join(record.Inputs, ", "))
		if r := []rune(title); len(r) > 60 {
			title = string(r[:57]) + "..."
		}

		rows := [][]string{
			{"Timestamp", formatTime(record.Timestamp)},
			{"Language", record.LangPair},
			{"Model", record.Model},
			{"Status", record.Status},
			{"Files", fmt.Sprintf("%d ok, %d failed, %d skipped", record.FilesOK, record.FilesFailed, record.FilesSkipped)},
			{"Characters", formatNumber(int64(record.CharacterCount))},
			{"Cost", formatCost(record.Cost)},
			{"Duration", formatDuration(record.Duration)},
		}
		if len(record.Outputs) > 0 {
			rows = append(rows, []string{"Outputs", strings.Join(record.Outputs, ", ")})
		}
		v.printSection(title, rows)

		if record.ErrorMessage != "" {
			color.New(color.FgRed).Fprintf(v.out, "  Error: %s\n", record.ErrorMessage)
		}
	}
}

// printCacheStats 打印缓存统计
func (v *Visualizer) printCacheStats(cache CacheStatistics) {
	data := [][]string{
		{"Cache Directory", cache.CacheDir},
		{"Cache Files", formatNumber(cache.TotalCacheFiles)},
		{"Cache Size", formatBytes(cache.TotalCacheSize)},
		{"Hit Rate", fmt.Sprintf("%.1f%% (%d hits, %d misses)",
			cache.CacheHitRate*100, cache.CacheHits, cache.CacheMisses)},
	}

	if !cache.OldestCacheEntry.IsZero() {
		data = append(data, []string{"Oldest Entry", formatTime(cache.OldestCacheEntry)})
	}
	if !cache.NewestCacheEntry.IsZero() {
		data = append(data, []string{"Newest Entry", formatTime(cache.NewestCacheEntry)})
	}

	v.printSection("Chunk Cache", data)
}

func (v *Visualizer) printTitle(c *color.Color, title string) {
	c.Fprintln(v.out, title)
	c.Fprintln(v.out, strings.Repeat("=", 50))
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	color.New(color.FgYellow, color.Bold).Fprintf(v.out, "%s\n", title)

	maxLabelLen := 0
	for _, row := range data {
		if len(row[0]) > maxLabelLen {
			maxLabelLen = len(row[0])
		}
	}

	labelColor := color.New(color.FgCyan)
	valueColor := color.New(color.FgWhite, color.Bold)
	for _, row := range data {
		labelColor.Fprintf(v.out, "  %-*s: ", maxLabelLen, row[0])
		valueColor.Fprintln(v.out, row[1])
	}
}

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

func formatCost(c float64) string {
	return fmt.Sprintf("$%.4f", c)
}

// formatBytes 格式化字节数
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// formatTime 格式化时间
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 02 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
