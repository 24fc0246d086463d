package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/test"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers"
)

// fakeProvider 记录请求并返回预设结果
type fakeProvider struct {
	mu       sync.Mutex
	requests []*providers.ProviderRequest
	reply    string
	err      error
}

func (f *fakeProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ProviderResponse{Text: f.reply, TokensIn: 120, TokensOut: 80}, nil
}

func (f *fakeProvider) GetName() string { return "fake" }

func newTestInvoker(p providers.TranslationProvider, cache *ChunkCache) *Invoker {
	return NewInvoker(p, NewPromptBuilder("English", "Russian"), InvokerConfig{
		ModelID:     "test-model",
		LangPair:    "en-ru",
		MaxTokens:   1000,
		Temperature: 0.2,
	}, cache, zap.NewNop())
}

func TestInvoker_Translate(t *testing.T) {
	p := &fakeProvider{reply: "```markdown\n# Привет\n```"}
	inv := newTestInvoker(p, nil)

	chunk := Chunk{OwnerFile: "a.md", Index: 2, Total: 3, Text: "# Hello"}
	res := inv.Translate(context.Background(), chunk)

	require.True(t, res.OK())
	assert.Equal(t, "# Привет", res.Text)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 80, res.OutputTokens)
	assert.Equal(t, 2, res.Index)
	assert.Equal(t, 3, res.Total)
	assert.False(t, res.Cached)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, inv.SystemPrompt(), req.SystemPrompt)
	assert.Contains(t, req.UserPrompt, "This is chunk 2/3")
	assert.Equal(t, "# Hello", req.Metadata[providers.MetadataSourceText])
	assert.Equal(t, 1000, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
}

func TestInvoker_Errors(t *testing.T) {
	chunk := Chunk{OwnerFile: "a.md", Index: 1, Total: 1, Text: "x"}

	t.Run("provider error", func(t *testing.T) {
		inv := newTestInvoker(&fakeProvider{err: providers.NewHTTPError(500, "down", nil)}, nil)
		res := inv.Translate(context.Background(), chunk)

		assert.Equal(t, StatusError, res.Status)
		var te *TranslationError
		require.True(t, errors.As(res.Err, &te))
		assert.Equal(t, "a.md", te.File)
		assert.Equal(t, 1, te.Chunk)
	})

	t.Run("empty reply", func(t *testing.T) {
		inv := newTestInvoker(&fakeProvider{reply: "  \n"}, nil)
		res := inv.Translate(context.Background(), chunk)

		assert.Equal(t, StatusError, res.Status)
		assert.ErrorIs(t, res.Err, ErrEmptyResponse)
	})
}

func TestInvoker_Cache(t *testing.T) {
	dir := t.TempDir()
	p := &fakeProvider{reply: "Привет"}
	chunk := Chunk{OwnerFile: "a.md", Index: 1, Total: 1, Text: "Hello"}

	first := newTestInvoker(p, NewChunkCache(dir, time.Hour)).Translate(context.Background(), chunk)
	require.True(t, first.OK())
	assert.False(t, first.Cached)

	// 新的缓存实例从目录中读取
	second := newTestInvoker(p, NewChunkCache(dir, time.Hour)).Translate(context.Background(), chunk)
	require.True(t, second.OK())
	assert.True(t, second.Cached)
	assert.Equal(t, "Привет", second.Text)
	assert.Equal(t, 120, second.InputTokens)

	assert.Len(t, p.requests, 1)
}

func TestStripMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"markdown fence", "```markdown\n# Hi\n\ntext\n```", "# Hi\n\ntext"},
		{"md fence with spaces", "\n```MD \n# Hi\n```\n", "# Hi"},
		{"longer fence keeps inner code", "````md\nA\n```\nB\n````", "A\n```\nB"},
		{"plain text", "# Hi\n\n```go\nx\n```", "# Hi\n\n```go\nx\n```"},
		{"trailing content", "```markdown\nA\n```\n\nmore", "```markdown\nA\n```\n\nmore"},
		{"other language", "```go\nx := 1\n```", "```go\nx := 1\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdownWrapper(tt.in))
		})
	}
}

func TestInvoker_MockProvider(t *testing.T) {
	p := &test.MockProvider{}
	p.On("Translate", mock.Anything, test.SourceIs("# Hi")).
		Return(&providers.ProviderResponse{Text: "# Привет", TokensIn: 10, TokensOut: 12}, nil).Once()
	p.On("Translate", mock.Anything, test.SourceIs("Bye")).
		Return(nil, providers.NewError(providers.ErrCodeAuth, "bad key")).Once()

	inv := newTestInvoker(p, nil)

	ok := inv.Translate(context.Background(), Chunk{OwnerFile: "a.md", Index: 1, Total: 2, Text: "# Hi"})
	require.True(t, ok.OK())
	assert.Equal(t, "# Привет", ok.Text)

	failed := inv.Translate(context.Background(), Chunk{OwnerFile: "a.md", Index: 2, Total: 2, Text: "Bye"})
	require.False(t, failed.OK())
	var perr *providers.Error
	require.ErrorAs(t, failed.Err, &perr)
	assert.Equal(t, providers.ErrCodeAuth, perr.Code)

	p.AssertExpectations(t)
}
