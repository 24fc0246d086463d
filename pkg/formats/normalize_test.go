package formats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blank line inserted before heading only",
			in:   "Intro\n# Title\nBody text\n",
			want: "Intro\n\n# Title\nBody text\n",
		},
		{
			name: "heading at start followed by paragraph",
			in:   "# Title\nParagraph\n",
			want: "# Title\nParagraph\n",
		},
		{
			name: "soft wrapped paragraph joined",
			in:   "Foo\nbar\nbaz.\n",
			want: "Foo bar baz.\n",
		},
		{
			name: "runs of blank lines collapsed",
			in:   "A\n\n\n\nB\n",
			want: "A\n\nB\n",
		},
		{
			name: "leading and trailing blank lines removed",
			in:   "\n\nA\n\n\n",
			want: "A\n",
		},
		{
			name: "table separated from surrounding text",
			in:   "Text\n| a | b |\n|---|---|\n| 1 | 2 |\nAfter\n",
			want: "Text\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nAfter\n",
		},
		{
			name: "list items stay on their own lines",
			in:   "- one\n- two\ncontinued\n",
			want: "- one\n- two\ncontinued\n",
		},
		{
			name: "paragraph stops at blockquote image and rule",
			in:   "a\nb\n> quote\n![x](y.png)\n---\nc\nd",
			want: "a b\n> quote\n![x](y.png)\n---\nc d\n",
		},
		{
			name: "empty document",
			in:   "",
			want: "\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizePreservesCodeFences(t *testing.T) {
	fenced := "```python\n# not a heading\n| not | a table |\n\n\n   indented   \nline one\nline two\n```"
	in := "Some\nwrapped text\n" + fenced + "\nAfter the code.\n"

	out := Normalize(in)

	assert.Contains(t, out, fenced)
	assert.True(t, strings.HasPrefix(out, "Some wrapped text\n```python\n"))
	assert.True(t, strings.HasSuffix(out, "```\nAfter the code.\n"))
}

func TestNormalizeNeverEmitsDoubleBlankLines(t *testing.T) {
	inputs := []string{
		"# A\n\n\n\n## B\n\n\ntext\n\n\n\n| x |\n\n\n\n- item\n\n\n",
		"\n\n\n\n",
		"para\n\n\n\n> q\n\n\n\n---\n\n\n\n![i](p)\n\n",
		"| a |\n\n\n| b |\n\n\nafter",
	}

	for _, in := range inputs {
		out := Normalize(in)
		assert.NotContains(t, out, "\n\n\n", "input %q", in)
		assert.True(t, strings.HasSuffix(out, "\n"))
		assert.False(t, strings.HasSuffix(out, "\n\n") && len(out) > 1, "trailing blank line in %q", out)
	}
}

func TestNormalizeIsStable(t *testing.T) {
	in := "Intro\n# Title\nline\nwrapped\n| a |\n| b |\nafter\n- x\n\n\n```\ncode\n```\n"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}
