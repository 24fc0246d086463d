package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

func okFile(name, text string) FileResult {
	return FileResult{File: name, Text: text, Status: translation.StatusOK}
}

func TestAssembler_Assemble(t *testing.T) {
	results := []FileResult{
		okFile("a.md", "# One\n\nAlpha"),
		{File: "broken.md", Status: translation.StatusError},
		okFile("b.md", "# Two\n\nBeta"),
	}

	md, err := NewAssembler("ru", nil).Assemble(results)
	require.NoError(t, err)
	assert.Equal(t, "> Переведено с помощью **https://github.com/ais-cube/md-translate-ru**\n\n"+
		"# One\n\nAlpha\n\n---\n\n# Two\n\nBeta\n", md)
}

func TestAssembler_SingleFileHasNoSeparator(t *testing.T) {
	md, err := NewAssembler("xx", nil).Assemble([]FileResult{okFile("a.md", "Text\nwrapped by the model.")})
	require.NoError(t, err)
	assert.Equal(t, "> Translated with **https://github.com/ais-cube/md-translate-ru**\n\nText wrapped by the model.\n", md)
	assert.NotContains(t, md, "---")
}

func TestAssembler_RepairsChunkSeams(t *testing.T) {
	// 分块边界处残留了被截断的重复标题，段落被模型折行
	text := "## Chapter 1: Introduction\n## Chapter 1: Int\nBody\nwrapped."
	md, err := NewAssembler("en", nil).Assemble([]FileResult{okFile("a.md", text)})
	require.NoError(t, err)
	assert.NotContains(t, md, "Int\n")
	assert.Contains(t, md, "\n\n## Chapter 1: Introduction\nBody wrapped.\n")
}

func TestAssembler_NoTranslations(t *testing.T) {
	_, err := NewAssembler("ru", nil).Assemble(nil)
	assert.ErrorIs(t, err, translation.ErrNoTranslations)

	_, err = NewAssembler("ru", nil).Assemble([]FileResult{{File: "a.md", Status: translation.StatusInterrupted}})
	assert.ErrorIs(t, err, translation.ErrNoTranslations)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want string
	}{
		{"first h1", "> note\n\n## Sub\n\n# Main Title \n\n# Second", "Main Title"},
		{"no h1", "## Only sub\n\ntext", "fallback"},
		{"hash without space", "#hashtag\n", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.md, "fallback"))
		})
	}
}
