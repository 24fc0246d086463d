package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 预定义错误
var (
	// ErrNoInputFiles 没有可翻译的输入文件
	ErrNoInputFiles = errors.New("no input files to translate")

	// ErrNoTranslations 没有任何文件翻译成功
	ErrNoTranslations = errors.New("no file was translated successfully")

	// ErrInterrupted 用户中断
	ErrInterrupted = errors.New("interrupted by user")

	// ErrBudgetExceeded 预算不足以开始下一个文件
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrEmptyResponse 翻译服务返回空文本
	ErrEmptyResponse = errors.New("empty translation response")

	// ErrEmptyText 空文本错误
	ErrEmptyText = errors.New("empty text provided")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTimeout 超时错误
	ErrTimeout = errors.New("translation timeout")

	// ErrRateLimited 速率限制错误
	ErrRateLimited = errors.New("rate limited")
)

// 错误代码常量
const (
	ErrCodeConfig     = "CONFIG_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeLLM        = "LLM_ERROR"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeTimeout    = "TIMEOUT_ERROR"
	ErrCodeRateLimit  = "RATE_LIMIT_ERROR"
	ErrCodeCache      = "CACHE_ERROR"
	ErrCodeChunk      = "CHUNK_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
)

// TranslationError 翻译错误，带上出错的文件和分块位置，便于只重跑失败的部分
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	File    string // 出错的文件
	Chunk   int    // 出错的分块序号，0 表示整个文件
	Total   int    // 文件的分块总数
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.File != "" {
		fmt.Fprintf(&b, " (file %s", e.File)
		if e.Chunk > 0 {
			fmt.Fprintf(&b, ", chunk %d/%d", e.Chunk, e.Total)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// NewTranslationError 创建翻译错误
func NewTranslationError(code, message string, cause error) *TranslationError {
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Retry:   isRetryableError(cause),
	}
}

// NewChunkError 创建分块翻译错误
func NewChunkError(chunk Chunk, cause error) *TranslationError {
	code := ErrCodeLLM
	switch {
	case errors.Is(cause, context.DeadlineExceeded), errors.Is(cause, ErrTimeout):
		code = ErrCodeTimeout
	case errors.Is(cause, ErrRateLimited):
		code = ErrCodeRateLimit
	}
	return &TranslationError{
		Code:    code,
		Message: "chunk translation failed",
		File:    chunk.OwnerFile,
		Chunk:   chunk.Index,
		Total:   chunk.Total,
		Cause:   cause,
		Retry:   isRetryableError(cause),
	}
}

// WrapError 包装错误
func WrapError(err error, code, message string) *TranslationError {
	if err == nil {
		return nil
	}

	var te *TranslationError
	if errors.As(err, &te) {
		return &TranslationError{
			Code:    te.Code,
			Message: message + ": " + te.Message,
			File:    te.File,
			Chunk:   te.Chunk,
			Total:   te.Total,
			Cause:   te.Cause,
			Retry:   te.Retry,
		}
	}

	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Retry:   isRetryableError(err),
	}
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	type retryable interface{ IsRetryable() bool }
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"temporary failure",
		"rate limit",
		"429",
		"503",
		"504",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
