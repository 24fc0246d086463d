package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "truncated heading after full heading",
			in:   "## Chapter 1: Introduction\n## Chapter 1: Int\n",
			want: "## Chapter 1: Introduction\n",
		},
		{
			name: "consecutive duplicate lines",
			in:   "Line A.\nLine A.\nLine B.\n",
			want: "Line A.\nLine B.\n",
		},
		{
			name: "duplicates differing only in surrounding whitespace",
			in:   "Line A.\n  Line A.  \nLine B.",
			want: "Line A.\nLine B.",
		},
		{
			name: "fuller heading replaces shorter one",
			in:   "## Chapter 2\n## Chapter 2: Setup\nBody\n",
			want: "## Chapter 2: Setup\nBody\n",
		},
		{
			name: "orphaned heading remainder is swallowed",
			in:   "## Chapter 1: Introduction\n## Chapter 1:\nIntroduction\nBody\n",
			want: "## Chapter 1: Introduction\nBody\n",
		},
		{
			name: "remainder only swallowed on the very next line",
			in:   "## Chapter 1: Introduction\n## Chapter 1:\nBody\nIntroduction\n",
			want: "## Chapter 1: Introduction\nBody\nIntroduction\n",
		},
		{
			name: "different heading levels are never merged",
			in:   "# Guide\n## Guide\n### Guide to setup\n",
			want: "# Guide\n## Guide\n### Guide to setup\n",
		},
		{
			name: "unrelated headings of the same level are kept",
			in:   "## Alpha\n## Beta\n",
			want: "## Alpha\n## Beta\n",
		},
		{
			name: "blank lines are not collapsed",
			in:   "A\n\n\nA\n",
			want: "A\n\n\nA\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Deduplicate(tc.in))
		})
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	inputs := []string{
		"## Chapter 1: Introduction\n## Chapter 1: Int\nroduction\nroduction\n",
		"## A\n## AB\n## ABC\ntext\ntext\n",
		"## AB\n## A\nB\n## A\n",
		"# T\n\n\n# T\n- a\n- a\n- b\n",
		"### x\n### x y\n### x\nplain\n\nplain\n",
		"| a |\n| a |\n```\n```\n",
		"## AB\n## C\n## CAB\n",
		"## Setup\n## Install\n## Install and Setup\n",
		"## A\n## B\n## C\n## ABC\ntext\n",
		"```\n}\n}\n```\n## A\n## AB\n",
	}

	for _, in := range inputs {
		once := Deduplicate(in)
		assert.Equal(t, once, Deduplicate(once), "input %q", in)
	}
}

func TestDeduplicateMergesBackwardAfterLongerHeading(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "longer heading absorbs two earlier fragments",
			in:   "## AB\n## C\n## CAB\n",
			want: "## CAB\n",
		},
		{
			name: "words split across headings",
			in:   "## Setup\n## Install\n## Install and Setup\n",
			want: "## Install and Setup\n",
		},
		{
			name: "stops at a non-heading line",
			in:   "## AB\nBody\n## C\n## CAB\n",
			want: "## AB\nBody\n## CAB\n",
		},
		{
			name: "stops at a different level",
			in:   "# AB\n## C\n## CAB\n",
			want: "# AB\n## CAB\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Deduplicate(tc.in))
		})
	}
}

func TestDeduplicateLeavesCodeFencesAlone(t *testing.T) {
	code := "```go\nfunc f() {\n\tif x {\n\t\ty()\n\t}\n}\n```\n"
	assert.Equal(t, code, Deduplicate(code))
	assert.Equal(t, code, Normalize(Deduplicate(code)))

	headings := "```\n## A\n## AB\nsame\nsame\n```\nsame\nsame\n"
	assert.Equal(t, "```\n## A\n## AB\nsame\nsame\n```\nsame\n", Deduplicate(headings))

	// 围栏行本身也不参与去重：空代码块的开闭两行都要保留
	assert.Equal(t, "```\n```\nafter\n", Deduplicate("```\n```\nafter\n"))
}
