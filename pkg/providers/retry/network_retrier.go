package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// 最大重试次数
	MaxRetries int `json:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ErrorType 错误类型枚举
type ErrorType int

const (
	ErrorTypeNone          ErrorType = iota
	ErrorTypeNetwork                 // 网络瞬时错误
	ErrorTypeRetryableHTTP           // 可重试的HTTP错误（429）
	ErrorTypeClientError             // 客户端错误（4xx）
	ErrorTypeServerError             // 服务端错误（5xx）
	ErrorTypePermanent               // 永久性错误
)

type retryable interface {
	IsRetryable() bool
}

type statusCoder interface {
	HTTPStatusCode() int
}

// NetworkRetrier 网络重试器
type NetworkRetrier struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewNetworkRetrier 创建网络重试器
func NewNetworkRetrier(config RetryConfig) *NetworkRetrier {
	return &NetworkRetrier{
		config: config,
		sleep:  sleepContext,
	}
}

// Do 执行 fn，遇到可重试错误时按指数退避重试
func (nr *NetworkRetrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= nr.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !nr.shouldRetry(ClassifyError(lastErr, nil), attempt) {
			return lastErr
		}
		if err := nr.sleep(ctx, nr.calculateDelay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// RetryableFunc 可重试的函数类型
type RetryableFunc func() (*http.Response, error)

// ExecuteWithRetry 执行带重试的 HTTP 调用
func (nr *NetworkRetrier) ExecuteWithRetry(ctx context.Context, fn RetryableFunc) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= nr.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := fn()
		if err == nil && resp != nil && resp.StatusCode < 400 {
			if lastResp != nil {
				lastResp.Body.Close()
			}
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if lastResp != nil {
				lastResp.Body.Close()
			}
			lastResp = resp
		}

		if !nr.shouldRetry(ClassifyError(err, resp), attempt) {
			break
		}

		// 丢弃本次响应，下一轮重新请求
		if lastResp != nil {
			lastResp.Body.Close()
			lastResp = nil
		}
		if err := nr.sleep(ctx, nr.calculateDelay(attempt)); err != nil {
			return nil, err
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("no response received")
}

// ClassifyError 分类错误
func ClassifyError(err error, resp *http.Response) ErrorType {
	if err != nil {
		var r retryable
		if errors.As(err, &r) && r.IsRetryable() {
			return ErrorTypeRetryableHTTP
		}
		var sc statusCoder
		if errors.As(err, &sc) && sc.HTTPStatusCode() != 0 {
			return classifyStatus(sc.HTTPStatusCode())
		}
		if IsNetworkError(err) {
			return ErrorTypeNetwork
		}
		return ErrorTypePermanent
	}

	if resp != nil {
		return classifyStatus(resp.StatusCode)
	}
	return ErrorTypeNone
}

func classifyStatus(status int) ErrorType {
	switch {
	case status >= 500:
		return ErrorTypeServerError
	case status == http.StatusTooManyRequests:
		return ErrorTypeRetryableHTTP
	case status >= 400:
		return ErrorTypeClientError
	}
	return ErrorTypeNone
}

// IsNetworkError 判断是否为网络错误
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && IsNetworkError(urlErr.Err) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timed out",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"broken pipe",
		"i/o timeout",
		"unexpected eof",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// shouldRetry 判断是否应该重试
func (nr *NetworkRetrier) shouldRetry(errorType ErrorType, attempt int) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError, ErrorTypeRetryableHTTP:
		return attempt < nr.config.MaxRetries
	default:
		return false
	}
}

// calculateDelay 计算延迟时间
func (nr *NetworkRetrier) calculateDelay(attempt int) time.Duration {
	delay := nr.config.InitialDelay
	if attempt > 0 {
		factor := nr.config.BackoffFactor
		if factor <= 1.0 {
			factor = 2.0
		}
		delay = time.Duration(float64(delay) * math.Pow(factor, float64(attempt)))
	}
	if nr.config.MaxDelay > 0 && delay > nr.config.MaxDelay {
		delay = nr.config.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transport 为 http.RoundTripper 增加重试，供基于 HTTP 的 SDK 客户端使用
type Transport struct {
	Base    http.RoundTripper
	retrier *NetworkRetrier
}

// NewTransport 创建带重试的传输层
func NewTransport(base http.RoundTripper, config RetryConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, retrier: NewNetworkRetrier(config)}
}

// RoundTrip 实现 http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	first := true
	return t.retrier.ExecuteWithRetry(req.Context(), func() (*http.Response, error) {
		attempt := req
		if !first {
			// 请求体已被读取，需要重新获取
			if req.Body != nil && req.GetBody == nil {
				return nil, errors.New("request body cannot be replayed")
			}
			attempt = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				attempt.Body = body
			}
		}
		first = false
		return t.Base.RoundTrip(attempt)
	})
}
