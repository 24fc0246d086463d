package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

const threeSections = "## One\n\naaaa\n## Two\n\nbbbb\n## Three\n\ncccc"

type fakeTranslator struct {
	calls  []translation.Chunk
	failAt map[string]int
	onCall func(chunk translation.Chunk)
}

func (f *fakeTranslator) Translate(_ context.Context, chunk translation.Chunk) translation.TranslatedChunk {
	f.calls = append(f.calls, chunk)
	if f.onCall != nil {
		f.onCall(chunk)
	}
	res := translation.TranslatedChunk{OwnerFile: chunk.OwnerFile, Index: chunk.Index, Total: chunk.Total}
	if f.failAt[chunk.OwnerFile] == chunk.Index {
		res.Status = translation.StatusError
		res.Err = translation.NewChunkError(chunk, errors.New("upstream 500"))
		return res
	}
	res.Status = translation.StatusOK
	res.Text = "T:" + chunk.Text
	res.InputTokens = 1000
	res.OutputTokens = 2000
	return res
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestPipeline(tr ChunkTranslator, maxChars int, opts Options) (*Pipeline, *sleepRecorder) {
	if opts.ChunkDelay == 0 {
		opts.ChunkDelay = DefaultChunkDelay
	}
	if opts.FileDelay == 0 {
		opts.FileDelay = DefaultFileDelay
	}
	if opts.Pricing == (translation.Pricing{}) {
		opts.Pricing = translation.DefaultPricing()
	}
	chunker := translation.NewChunker(translation.ChunkConfig{MaxChars: maxChars, ProtectFences: true})
	p := New(chunker, tr, NewRunState(), opts, zap.NewNop())
	rec := &sleepRecorder{}
	p.sleep = rec.sleep
	return p, rec
}

func TestPipeline_Run(t *testing.T) {
	tr := &fakeTranslator{}
	p, rec := newTestPipeline(tr, 20, Options{})

	res, err := p.Run(context.Background(), []SourceFile{
		{Name: "a.md", Text: threeSections},
		{Name: "b.md", Text: "short"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.StopReason)
	require.Len(t, res.Files, 2)

	a := res.Files[0]
	assert.True(t, a.OK())
	assert.Equal(t, 3, a.Chunks)
	assert.Equal(t, "T:## One\n\naaaa\n\nT:## Two\n\nbbbb\n\nT:## Three\n\ncccc", a.Text)
	assert.Equal(t, 3000, a.InputTokens)
	assert.Equal(t, 6000, a.OutputTokens)
	assert.InDelta(t, 0.099, a.Cost, 1e-9)

	assert.Equal(t, "T:short", res.Files[1].Text)

	require.Len(t, tr.calls, 4)
	for i, c := range tr.calls[:3] {
		assert.Equal(t, i+1, c.Index)
		assert.Equal(t, 3, c.Total)
	}

	// 分块之间 1s，文件之间 2s，最后一个分块和文件之后不等待
	assert.Equal(t, []time.Duration{time.Second, time.Second, 2 * time.Second}, rec.delays)

	state := p.State()
	assert.Equal(t, 2, state.FilesOK)
	assert.Equal(t, 4000, state.InputTokens)
	assert.Equal(t, 8000, state.OutputTokens)
	assert.InDelta(t, 0.132, state.SpentBudget, 1e-9)
	assert.Len(t, res.Succeeded(), 2)
}

func TestPipeline_ChunkErrorAbandonsFile(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranslator{failAt: map[string]int{"a.md": 2}}
	p, _ := newTestPipeline(tr, 20, Options{PerFileDir: dir})

	res, err := p.Run(context.Background(), []SourceFile{
		{Name: "a.md", Text: threeSections},
		{Name: "b.txt", Text: "# B\n\nbody"},
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	a := res.Files[0]
	assert.Equal(t, translation.StatusError, a.Status)
	assert.Empty(t, a.Text)
	assert.Contains(t, a.StatusText(), "error: ")
	assert.Contains(t, a.StatusText(), "file a.md, chunk 2/3")
	var terr *translation.TranslationError
	require.ErrorAs(t, a.Err, &terr)
	assert.Equal(t, 2, terr.Chunk)

	// 第三个分块没有发送
	assert.Len(t, tr.calls, 3)
	assert.True(t, res.Files[1].OK())

	assert.Equal(t, 1, p.State().FilesOK)
	assert.Equal(t, 1, p.State().FilesFailed)
	// 第一个分块已计费
	assert.Equal(t, 2000, p.State().InputTokens)

	assert.NoFileExists(t, filepath.Join(dir, "a.md"))
	data, err := os.ReadFile(filepath.Join(dir, "b.md"))
	require.NoError(t, err)
	assert.Equal(t, "T:# B\n\nbody\n", string(data))
	assert.Equal(t, filepath.Join(dir, "b.md"), res.Files[1].OutputPath)
}

func TestPipeline_Interrupt(t *testing.T) {
	tr := &fakeTranslator{}
	p, rec := newTestPipeline(tr, 20, Options{})
	tr.onCall = func(chunk translation.Chunk) {
		if chunk.Index == 1 {
			p.State().RequestStop()
		}
	}

	res, err := p.Run(context.Background(), []SourceFile{
		{Name: "a.md", Text: threeSections},
		{Name: "b.md", Text: "short"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.StopReason, translation.ErrInterrupted)

	// 进行中的请求照常完成，之后不再发送新请求
	assert.Len(t, tr.calls, 1)
	require.Len(t, res.Files, 1)
	assert.Equal(t, translation.StatusInterrupted, res.Files[0].Status)
	assert.Empty(t, res.Succeeded())
	assert.Equal(t, 2, p.State().FilesSkipped)
	assert.Empty(t, rec.delays)

	_, err = NewAssembler("ru", nil).Assemble(res.Files)
	assert.ErrorIs(t, err, translation.ErrNoTranslations)
}

func TestPipeline_BudgetPreCheck(t *testing.T) {
	tr := &fakeTranslator{}
	p, _ := newTestPipeline(tr, 0, Options{Budget: 0.05})

	text := strings.Repeat("x", 3000)
	res, err := p.Run(context.Background(), []SourceFile{
		{Name: "a.md", Text: text},
		{Name: "b.md", Text: text},
		{Name: "c.md", Text: text},
	})
	require.NoError(t, err)

	// 预估每个文件 0.02025，实际花费 0.033：第二个文件会超出 0.05
	assert.ErrorIs(t, res.StopReason, translation.ErrBudgetExceeded)
	require.Len(t, res.Files, 1)
	assert.True(t, res.Files[0].OK())
	assert.Equal(t, 2, p.State().FilesSkipped)
	assert.InDelta(t, 0.033, p.State().SpentBudget, 1e-9)
}

func TestPipeline_ContextCanceled(t *testing.T) {
	tr := &fakeTranslator{}
	p, _ := newTestPipeline(tr, 0, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	tr.onCall = func(translation.Chunk) { cancel() }

	res, err := p.Run(ctx, []SourceFile{{Name: "a.md", Text: "a"}, {Name: "b.md", Text: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Files, 1)
}

func TestForecast(t *testing.T) {
	chunker := translation.NewChunker(translation.DefaultChunkConfig())
	files := []SourceFile{
		{Name: "a.md", Text: strings.Repeat("x", 3000)},
		{Name: "b.md", Text: strings.Repeat("я", 3000)},
	}

	f := NewForecast(files, chunker, strings.Repeat("y", 300), translation.DefaultPricing())
	require.Len(t, f.Files, 2)

	a := f.Files[0]
	assert.Equal(t, 3000, a.Chars)
	assert.Equal(t, 1, a.Chunks)
	assert.Equal(t, 1100, a.EstInputTokens)
	assert.Equal(t, 1150, a.EstOutputTokens)
	assert.InDelta(t, 0.02055, a.EstCost, 1e-9)
	assert.Equal(t, 10500*time.Millisecond, a.EstTime)

	// 按字符而不是字节计数
	assert.Equal(t, 3000, f.Files[1].Chars)
	assert.Equal(t, 6000, f.TotalChars)
	assert.InDelta(t, 0.0411, f.TotalCost, 1e-9)
	assert.Equal(t, 21*time.Second, f.TotalTime)

	remaining, ok := f.Budget(0.05)
	assert.True(t, ok)
	assert.InDelta(t, 0.0089, remaining, 1e-9)

	remaining, ok = f.Budget(0.04)
	assert.False(t, ok)
	assert.InDelta(t, -0.0011, remaining, 1e-9)
}
