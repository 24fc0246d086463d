package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		want LineKind
	}{
		{"", KindBlank},
		{"   \t", KindBlank},
		{"```go", KindCodeFence},
		{"  ```", KindCodeFence},
		{"| a | b |", KindTable},
		{"|---|---|", KindTable},
		{"# Title", KindHeading},
		{"###### Deep", KindHeading},
		{"####### Too deep", KindParagraph},
		{"#hashtag", KindParagraph},
		{"---", KindRule},
		{"***", KindRule},
		{"___", KindRule},
		{"- item", KindList},
		{"  * nested", KindList},
		{"12. twelfth", KindList},
		{"**bold** start", KindParagraph},
		{"> quote", KindBlockquote},
		{"![alt](img.png)", KindImage},
		{"Plain text.", KindParagraph},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.line), "line %q", tc.line)
		})
	}
}

func TestHeadingLevel(t *testing.T) {
	level, text, ok := HeadingLevel("  ###   Setup guide ")
	assert.True(t, ok)
	assert.Equal(t, 3, level)
	assert.Equal(t, "Setup guide", text)

	_, _, ok = HeadingLevel("not a heading")
	assert.False(t, ok)
}

func TestListMarker(t *testing.T) {
	indent, marker, text, ok := ListMarker("    3. third item")
	assert.True(t, ok)
	assert.Equal(t, 4, indent)
	assert.Equal(t, "3.", marker)
	assert.Equal(t, "third item", text)

	_, _, _, ok = ListMarker("plain")
	assert.False(t, ok)
}

func TestLineKindString(t *testing.T) {
	assert.Equal(t, "heading", KindHeading.String())
	assert.Equal(t, "codefence", KindCodeFence.String())
	assert.Equal(t, "unknown", LineKind(99).String())
}
