package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// ChatMessage 是聊天补全请求中的一条消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 记录服务器收到的请求
type ChatRequest struct {
	Path      string
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// System 返回系统消息内容
func (r ChatRequest) System() string {
	for _, m := range r.Messages {
		if m.Role == "system" {
			return m.Content
		}
	}
	return ""
}

// User 返回第一条用户消息内容
func (r ChatRequest) User() string {
	for _, m := range r.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

// MockOpenAIServer 是一个模拟的 OpenAI 聊天补全服务器
type MockOpenAIServer struct {
	Server          *httptest.Server
	URL             string
	DefaultResponse string
	// Responder 非空时根据请求生成回复
	Responder func(req ChatRequest) string
	DelayMs   int
	// PromptTokens / CompletionTokens 写入 usage 字段
	PromptTokens     int
	CompletionTokens int

	requests []ChatRequest
	failures []int
	mu       sync.Mutex
}

// NewMockOpenAIServer 创建一个新的模拟服务器，测试结束时自动关闭
func NewMockOpenAIServer(t *testing.T) *MockOpenAIServer {
	mock := &MockOpenAIServer{
		DefaultResponse:  "这是翻译后的文本",
		PromptTokens:     100,
		CompletionTokens: 50,
	}

	server := httptest.NewServer(http.HandlerFunc(mock.handle))
	mock.Server = server
	mock.URL = server.URL

	t.Cleanup(func() {
		server.Close()
	})

	return mock
}

func (m *MockOpenAIServer) handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无法解析请求体", "invalid_request_error")
		return
	}
	req.Path = r.URL.Path

	m.mu.Lock()
	m.requests = append(m.requests, req)
	delay := m.DelayMs
	status := 0
	if len(m.failures) > 0 {
		status = m.failures[0]
		m.failures = m.failures[1:]
	}
	responder := m.Responder
	response := m.DefaultResponse
	promptTokens, completionTokens := m.PromptTokens, m.CompletionTokens
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(time.Duration(delay) * time.Millisecond)
	}

	if status != 0 {
		writeError(w, status, "模拟服务器错误", "server_error")
		return
	}

	if responder != nil {
		response = responder(req)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": response,
				},
				"finish_reason": "stop",
				"index":         0,
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    kind,
		},
	})
}

// FailNext 让接下来的请求依次返回给定的 HTTP 状态码
func (m *MockOpenAIServer) FailNext(statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, statuses...)
}

// SetDefaultResponse 设置默认响应
func (m *MockOpenAIServer) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultResponse = response
}

// Requests 返回已收到请求的副本
func (m *MockOpenAIServer) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// SourceSection 从用户提示词中取出源文本部分
func SourceSection(userPrompt string) string {
	const begin, end = "---BEGIN SOURCE TEXT---", "---END SOURCE TEXT---"
	start := strings.Index(userPrompt, begin)
	stop := strings.LastIndex(userPrompt, end)
	if start < 0 || stop < start {
		return userPrompt
	}
	return strings.TrimSpace(userPrompt[start+len(begin) : stop])
}

// Stop 停止服务器
func (m *MockOpenAIServer) Stop() {
	m.Server.Close()
}
