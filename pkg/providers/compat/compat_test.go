package compat

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-md-translator/internal/test"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(url string, maxRetries int) *Provider {
	cfg := DefaultConfig()
	cfg.Name = "deepseek"
	cfg.APIKey = "sk-test-key-123456"
	cfg.APIEndpoint = url + "/"
	cfg.Model = "deepseek-chat"
	cfg.MaxRetries = maxRetries
	cfg.RetryDelay = time.Millisecond
	cfg.RetryConfig.MaxDelay = time.Millisecond
	cfg.Headers = map[string]string{"X-Test": "1"}
	return New(cfg, zap.NewNop())
}

func TestProvider_Translate(t *testing.T) {
	mock := test.NewMockOpenAIServer(t)
	mock.SetDefaultResponse("Bonjour")

	provider := newTestProvider(mock.URL, 0)
	resp, err := provider.Translate(context.Background(), &providers.ProviderRequest{
		SystemPrompt: "sys",
		UserPrompt:   "Hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", resp.Text)
	assert.Equal(t, 100, resp.TokensIn)
	assert.Equal(t, 50, resp.TokensOut)
	assert.Equal(t, "deepseek", provider.GetName())

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/chat/completions", reqs[0].Path)
	assert.Equal(t, "deepseek-chat", reqs[0].Model)
	assert.Equal(t, "sys", reqs[0].System())
}

func TestProvider_RetriesServerErrors(t *testing.T) {
	mock := test.NewMockOpenAIServer(t)
	mock.FailNext(http.StatusBadGateway, http.StatusServiceUnavailable)

	provider := newTestProvider(mock.URL, 3)
	resp, err := provider.Translate(context.Background(), &providers.ProviderRequest{UserPrompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "这是翻译后的文本", resp.Text)
	assert.Len(t, mock.Requests(), 3)
}

func TestProvider_ClientErrorNotRetried(t *testing.T) {
	mock := test.NewMockOpenAIServer(t)
	mock.FailNext(http.StatusUnauthorized)

	provider := newTestProvider(mock.URL, 3)
	_, err := provider.Translate(context.Background(), &providers.ProviderRequest{UserPrompt: "Hello"})
	require.Error(t, err)

	var perr *providers.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, providers.ErrCodeAuth, perr.Code)
	assert.Equal(t, http.StatusUnauthorized, perr.HTTPStatus)
	assert.Len(t, mock.Requests(), 1)
}

func TestMaskAuthToken(t *testing.T) {
	assert.Equal(t, "", maskAuthToken(""))
	assert.Equal(t, "****", maskAuthToken("short"))
	assert.Equal(t, "sk-t****3456", maskAuthToken("sk-test-key-123456"))
}
