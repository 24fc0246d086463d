package translation

import (
	"fmt"
	"strings"
)

// 源文本在用户提示词中的边界标记
const (
	SourceBeginMarker = "---BEGIN SOURCE TEXT---"
	SourceEndMarker   = "---END SOURCE TEXT---"
)

const sectionRule = "============================================================"

// PromptBuilder 提示词构建器
type PromptBuilder struct {
	// 源语言
	SourceLang string
	// 目标语言
	TargetLang string
	// 术语表，按文件中的顺序
	Glossary []GlossaryEntry
	// 翻译规范文件内容（可选）
	TranslateRules string
	// 编辑规范文件内容（可选）
	EditorialRules string
	// 是否翻译图片的 alt 文本
	TranslateImages bool
}

// NewPromptBuilder 创建提示词构建器
func NewPromptBuilder(sourceLang, targetLang string) *PromptBuilder {
	return &PromptBuilder{
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}
}

// WithGlossary 设置术语表
func (pb *PromptBuilder) WithGlossary(entries []GlossaryEntry) *PromptBuilder {
	pb.Glossary = entries
	return pb
}

// WithRules 设置翻译规范和编辑规范
func (pb *PromptBuilder) WithRules(translateRules, editorialRules string) *PromptBuilder {
	pb.TranslateRules = translateRules
	pb.EditorialRules = editorialRules
	return pb
}

// WithTranslateImages 设置图片 alt 文本是否翻译
func (pb *PromptBuilder) WithTranslateImages(on bool) *PromptBuilder {
	pb.TranslateImages = on
	return pb
}

// BuildSystemPrompt 构建系统提示词，整个运行期间不变
func (pb *PromptBuilder) BuildSystemPrompt() string {
	parts := []string{
		fmt.Sprintf("You are a professional technical translator from %s to %s.", pb.SourceLang, pb.TargetLang),
		"Follow the rules below EXACTLY and WITHOUT DEVIATION.\n",
	}

	if rules := strings.TrimSpace(pb.TranslateRules); rules != "" {
		parts = append(parts,
			sectionRule,
			"TRANSLATION SPECIFICATION (TRANSLATE.md)",
			sectionRule,
			rules)
	}

	if rules := strings.TrimSpace(pb.EditorialRules); rules != "" {
		parts = append(parts,
			"\n"+sectionRule,
			"EDITORIAL RULES (HUMANIZER.md): anti-AI cleanup only",
			"IMPORTANT: do NOT apply the PERSONALITY AND SOUL section.",
			"Do not add a personal voice, emotions, humour or first person.",
			"Use these rules ONLY to remove machine-translation cliches.",
			sectionRule,
			rules)
	}

	if len(pb.Glossary) > 0 {
		lines := make([]string, 0, len(pb.Glossary))
		for _, e := range pb.Glossary {
			lines = append(lines, fmt.Sprintf("- %s -> %s", e.Source, e.Target))
		}
		parts = append(parts,
			"\n"+sectionRule,
			"CANONICAL GLOSSARY",
			"If a term occurs in the text, use ONLY the translation from the glossary.",
			sectionRule,
			strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt 构建单个分块的用户提示词
func (pb *PromptBuilder) BuildUserPrompt(chunk Chunk) string {
	chunkInfo := ""
	if chunk.IsPartial() {
		chunkInfo = fmt.Sprintf("\n\nThis is chunk %d/%d. Translate only this fragment.", chunk.Index, chunk.Total)
	}

	imageRule := "8. Images ![alt](path): leave them COMPLETELY unchanged, including alt-text and path."
	if pb.TranslateImages {
		imageRule = "8. Images ![alt](path): TRANSLATE the alt-text, keep the path unchanged."
	}

	return fmt.Sprintf(`Translate the following document from %s to %s.

File: %s%s

FORMATTING RULES (CRITICAL):

1. MARKDOWN STRUCTURE: keep it 1:1. Headings (#), lists (-), tables (|), code blocks (`+"```"+`), links, images.
2. HEADINGS: every heading (#, ##, ###) appears exactly ONCE, on ONE line. Example: "## Chapter 1: Title".
   - Never duplicate headings.
   - Never break a heading across several lines.
3. TABLES: keep markdown tables as tables. Do not turn a table into prose. Every table row is a line with |.
4. PARAGRAPHS: one paragraph is one continuous block of text. Do NOT put sentences on separate lines.
   - Exactly one blank line between paragraphs.
   - Do NOT add extra blank lines.
   - Do NOT hard-wrap long sentences.
5. CODE BLOCKS: do NOT translate the contents of `+"```"+` blocks. Leave them as they are.
6. URLs, identifiers, tickers: do NOT translate.
7. Glossary: use ONLY the canonical terms (if a glossary is provided).
%s
9. Table of contents: translate it ONCE, never duplicate it.
10. Hierarchy: # is the document title, ## are sections, ### are subsections. Keep the levels.

OUTPUT FORMAT:
- Return ONLY the translated Markdown. No comments, no preamble, no postscript.
- Do not wrap the output in `+"```markdown```"+` blocks.

%s

%s

%s`, pb.SourceLang, pb.TargetLang, chunk.OwnerFile, chunkInfo, imageRule,
		SourceBeginMarker, chunk.Text, SourceEndMarker)
}
