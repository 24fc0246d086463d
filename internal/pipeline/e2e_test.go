package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/render"
	"github.com/nerdneilsfield/go-md-translator/internal/test"
	"github.com/nerdneilsfield/go-md-translator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

func TestEndToEnd_MockServer(t *testing.T) {
	mock := test.NewMockOpenAIServer(t)
	mock.Responder = func(req test.ChatRequest) string {
		// 模拟模型把回复包进 ```markdown 围栏并折行
		return "```markdown\n" + strings.ToUpper(test.SourceSection(req.User())) + "\n```"
	}

	ctx := context.Background()
	mc := config.ModelConfig{
		Name:            "mock",
		ModelID:         "gpt-4o",
		APIType:         config.APITypeOpenAI,
		BaseURL:         mock.URL,
		Key:             "sk-test",
		MaxOutputTokens: 4096,
	}
	provider, err := factory.New(zap.NewNop()).CreateProvider(ctx, mc)
	require.NoError(t, err)

	lang := config.LookupLanguage("en-de")
	prompts := translation.NewPromptBuilder(lang.Source, lang.Target).
		WithGlossary([]translation.GlossaryEntry{{Source: "chunk", Target: "Block"}})
	invoker := translation.NewInvoker(provider, prompts, translation.InvokerConfig{
		ModelID:   mc.ModelID,
		LangPair:  "en-de",
		MaxTokens: mc.MaxOutputTokens,
	}, nil, zap.NewNop())

	outDir := t.TempDir()
	chunker := translation.NewChunker(translation.ChunkConfig{MaxChars: 40, ProtectFences: true})
	p := New(chunker, invoker, NewRunState(), Options{
		Pricing:      mc.Pricing(),
		SystemPrompt: invoker.SystemPrompt(),
		PerFileDir:   filepath.Join(outDir, "files"),
	}, zap.NewNop())
	rec := &sleepRecorder{}
	p.sleep = rec.sleep

	res, err := p.Run(ctx, []SourceFile{
		{Name: "intro.md", Text: "# Intro\n\nfirst part\n## Usage\n\nsecond part\nwrapped line"},
		{Name: "faq.md", Text: "## FAQ\n\nanswer"},
	})
	require.NoError(t, err)
	require.Len(t, res.Succeeded(), 2)
	assert.Equal(t, 2, res.Files[0].Chunks)

	reqs := mock.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[0].System(), "CANONICAL GLOSSARY")
	assert.Contains(t, reqs[0].System(), "- chunk -> Block")
	assert.Contains(t, reqs[0].User(), "from English to German")
	assert.Contains(t, reqs[0].User(), "This is chunk 1/2.")
	assert.NotContains(t, reqs[2].User(), "This is chunk")
	assert.Equal(t, "# Intro\n\nfirst part", test.SourceSection(reqs[0].User()))

	// mock 每次请求返回 100 + 50 个 token
	assert.Equal(t, 300, p.State().InputTokens)
	assert.Equal(t, 150, p.State().OutputTokens)

	md, err := NewAssembler(config.TargetCode("en-de"), zap.NewNop()).Assemble(res.Files)
	require.NoError(t, err)
	assert.Equal(t, "> Ubersetzt mit **"+config.ProjectURL+"**\n\n"+
		"# INTRO\n\nFIRST PART\n\n## USAGE\n\nSECOND PART WRAPPED LINE\n\n---\n\n## FAQ\n\nANSWER\n", md)
	assert.Equal(t, "INTRO", ExtractTitle(md, "translated"))

	perFile, err := os.ReadFile(filepath.Join(outDir, "files", "faq.md"))
	require.NoError(t, err)
	assert.Equal(t, "## FAQ\n\nANSWER\n", string(perFile))

	gen, err := render.NewGenerator(filepath.Join(outDir, "fonts"), zap.NewNop()).Generate(md, outDir, "book",
		[]string{render.FormatMarkdown, render.FormatHTML}, render.Options{Title: ExtractTitle(md, "book"), Lang: "de"})
	require.NoError(t, err)
	require.Len(t, gen.Files, 2)
	html, err := os.ReadFile(filepath.Join(outDir, "book.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<html lang="de">`)
	assert.Contains(t, string(html), "SECOND PART WRAPPED LINE")
}
