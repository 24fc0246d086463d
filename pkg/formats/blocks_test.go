package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks(t *testing.T) {
	md := "# Title\n\nFirst paragraph.\n\n- bullet\n2. numbered\n\n| h1 | h2 |\n|----|----|\n| a | b |\n\n```go\nfmt.Println(1)\n\n```\n> quoted\n---\n![Diagram](img/d.png)\n"

	blocks := ParseBlocks(md)
	require.Len(t, blocks, 9)

	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, "Title", blocks[0].Text)

	assert.Equal(t, KindParagraph, blocks[1].Kind)
	assert.Equal(t, "First paragraph.", blocks[1].Text)

	assert.Equal(t, KindList, blocks[2].Kind)
	assert.False(t, blocks[2].Ordered)
	assert.Equal(t, "bullet", blocks[2].Text)
	assert.True(t, blocks[3].Ordered)
	assert.Equal(t, "2.", blocks[3].Marker)

	assert.Equal(t, KindTable, blocks[4].Kind)
	assert.Equal(t, [][]string{{"h1", "h2"}, {"a", "b"}}, blocks[4].Rows)

	assert.Equal(t, KindCodeFence, blocks[5].Kind)
	assert.Equal(t, "go", blocks[5].Info)
	assert.Equal(t, []string{"fmt.Println(1)", ""}, blocks[5].Lines)

	assert.Equal(t, KindBlockquote, blocks[6].Kind)
	assert.Equal(t, "quoted", blocks[6].Text)
	assert.Equal(t, KindRule, blocks[7].Kind)

	assert.Equal(t, KindImage, blocks[8].Kind)
	assert.Equal(t, "Diagram", blocks[8].Text)
	assert.Equal(t, "img/d.png", blocks[8].Info)
}

func TestParseBlocksUnclosedFence(t *testing.T) {
	blocks := ParseBlocks("```\nnever closed")
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"never closed"}, blocks[0].Lines)
}

func TestStripInline(t *testing.T) {
	in := "**bold** and *it* `code` [link](http://x) ![alt](a.png)"
	assert.Equal(t, "bold and it code link [alt]", StripInline(in))
}

func TestCountImages(t *testing.T) {
	assert.Equal(t, 2, CountImages("![a](1.png) text ![](2.png)"))
	assert.Equal(t, 0, CountImages("[link](x)"))
}

func TestMarkdownPostProcessor(t *testing.T) {
	p := NewMarkdownPostProcessor(nil)
	out := p.ProcessMarkdown("## A\n## A\nfoo\nbar\n\n\n\nbaz\n")
	assert.Equal(t, "## A\nfoo bar\n\nbaz\n", out)
}

func TestPreformatMarkdownKeepsContent(t *testing.T) {
	out := PreformatMarkdown("doc.md", "# Title\n\nSome text.\n", nil)
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "Some text.")
}
