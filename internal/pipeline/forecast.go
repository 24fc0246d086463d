package pipeline

import (
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

const (
	// 译文 token 数约为原文的 1.15 倍
	outputTokenRatio = 1.15
	// 每千字符的平均翻译耗时
	secondsPer1KChars = 3.5
)

// FileForecast 单个文件的预估
type FileForecast struct {
	Name            string
	Chars           int
	Chunks          int
	EstInputTokens  int
	EstOutputTokens int
	EstCost         float64
	EstTime         time.Duration
}

// Forecast 整次运行的预估
type Forecast struct {
	Files      []FileForecast
	TotalChars int
	TotalCost  float64
	TotalTime  time.Duration
}

// NewForecast 按文件估算 token、费用和耗时
func NewForecast(files []SourceFile, chunker *translation.Chunker, systemPrompt string, pricing translation.Pricing) *Forecast {
	systemTokens := translation.EstimateTokens(systemPrompt)

	f := &Forecast{Files: make([]FileForecast, 0, len(files))}
	for _, file := range files {
		tokens := translation.EstimateTokens(file.Text)
		chars := utf8.RuneCountInString(file.Text)
		ff := FileForecast{
			Name:            file.Name,
			Chars:           chars,
			Chunks:          len(chunker.Split(file.Text)),
			EstInputTokens:  tokens + systemTokens,
			EstOutputTokens: int(float64(tokens) * outputTokenRatio),
			EstTime:         time.Duration(float64(chars) / 1000 * secondsPer1KChars * float64(time.Second)),
		}
		ff.EstCost = pricing.Cost(ff.EstInputTokens, ff.EstOutputTokens)

		f.Files = append(f.Files, ff)
		f.TotalChars += ff.Chars
		f.TotalCost += ff.EstCost
		f.TotalTime += ff.EstTime
	}
	return f
}

// Budget 返回预算减去预估总费用后的余额，余额为负时 ok 为 false
func (f *Forecast) Budget(budget float64) (remaining float64, ok bool) {
	remaining = budget - f.TotalCost
	return remaining, remaining >= 0
}
