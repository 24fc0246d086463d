package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 模型
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		MaxTokens:   16384,
		Temperature: 0.3,
		Timeout:     5 * time.Minute, // 长章节的单次请求可能持续数分钟
		MaxRetries:  3,
		RetryDelay:  time.Second,
		Headers:     make(map[string]string),
	}
}

// TranslationProvider 翻译服务接口：一次请求对应一个分块
type TranslationProvider interface {
	// Translate 执行翻译
	Translate(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// GetName 获取提供商名称
	GetName() string
}

// MetadataSourceText 是请求元数据中保存分块原文的键
const MetadataSourceText = "source_text"

// ProviderRequest 提供商请求
type ProviderRequest struct {
	SystemPrompt string                 `json:"system_prompt"`
	UserPrompt   string                 `json:"user_prompt"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Temperature  float64                `json:"temperature,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderResponse 提供商响应
type ProviderResponse struct {
	Text         string                 `json:"text"`
	TokensIn     int                    `json:"tokens_in,omitempty"`
	TokensOut    int                    `json:"tokens_out,omitempty"`
	Model        string                 `json:"model,omitempty"`
	FinishReason string                 `json:"finish_reason,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// 错误代码
const (
	ErrCodeRateLimit   = "rate_limit"
	ErrCodeTimeout     = "timeout"
	ErrCodeServerError = "server_error"
	ErrCodeAuth        = "auth_error"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeEmpty       = "empty_response"
	ErrCodeConfig      = "config_error"
	ErrCodeUnknown     = "unknown"
)

// Error 提供商错误
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode 返回 HTTP 状态码，没有时为 0
func (e *Error) HTTPStatusCode() int {
	return e.HTTPStatus
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeTimeout, ErrCodeServerError:
		return true
	default:
		return false
	}
}

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewHTTPError 根据 HTTP 状态码创建错误
func NewHTTPError(status int, message string, cause error) *Error {
	return &Error{
		Code:       CodeForStatus(status),
		Message:    message,
		HTTPStatus: status,
		Cause:      cause,
	}
}

// CodeForStatus 把 HTTP 状态码映射为错误代码
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuth
	case status >= 500:
		return ErrCodeServerError
	case status >= 400:
		return ErrCodeBadRequest
	default:
		return ErrCodeUnknown
	}
}
