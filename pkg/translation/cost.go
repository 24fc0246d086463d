package translation

import "unicode/utf8"

// charsPerToken 粗略估算：平均 3 个字符一个 token
const charsPerToken = 3

// Pricing 模型价格，单位为美元 / 百万 token
type Pricing struct {
	InputPerMillion  float64 `json:"input_per_million" mapstructure:"input_token_price"`
	OutputPerMillion float64 `json:"output_per_million" mapstructure:"output_token_price"`
}

// DefaultPricing 返回默认价格
func DefaultPricing() Pricing {
	return Pricing{
		InputPerMillion:  3.0,
		OutputPerMillion: 15.0,
	}
}

// Cost 计算给定 token 数的费用
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.InputPerMillion + float64(outputTokens)*p.OutputPerMillion) / 1_000_000
}

// EstimateTokens 估算文本的 token 数
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}
