package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerdneilsfield/go-md-translator/internal/test"
)

func TestPromptBuilder(t *testing.T) {
	pb := NewPromptBuilder("English", "Russian")

	t.Run("System Prompt", func(t *testing.T) {
		prompt := pb.BuildSystemPrompt()

		assert.Contains(t, prompt, "from English to Russian")
		assert.NotContains(t, prompt, "TRANSLATE.md")
		assert.NotContains(t, prompt, "HUMANIZER.md")
		assert.NotContains(t, prompt, "GLOSSARY")
	})

	t.Run("System Prompt With Rules And Glossary", func(t *testing.T) {
		prompt := NewPromptBuilder("English", "Russian").
			WithRules("Keep tickers.", "Drop filler words.").
			WithGlossary([]GlossaryEntry{
				{Source: "ledger", Target: "реестр"},
				{Source: "stake", Target: "стейк"},
			}).
			BuildSystemPrompt()

		assert.Contains(t, prompt, "TRANSLATION SPECIFICATION (TRANSLATE.md)")
		assert.Contains(t, prompt, "Keep tickers.")
		assert.Contains(t, prompt, "PERSONALITY AND SOUL")
		assert.Contains(t, prompt, "Drop filler words.")
		assert.Contains(t, prompt, "- ledger -> реестр\n- stake -> стейк")
	})

	t.Run("User Prompt Single Chunk", func(t *testing.T) {
		chunk := Chunk{OwnerFile: "intro.md", Index: 1, Total: 1, Text: "# Hello\n\nWorld"}
		prompt := pb.BuildUserPrompt(chunk)

		assert.Contains(t, prompt, "File: intro.md")
		assert.NotContains(t, prompt, "This is chunk")
		assert.Contains(t, prompt, "leave them COMPLETELY unchanged")
		assert.Equal(t, chunk.Text, test.SourceSection(prompt))
	})

	t.Run("User Prompt Partial Chunk", func(t *testing.T) {
		chunk := Chunk{OwnerFile: "book.md", Index: 2, Total: 5, Text: "## Part"}
		prompt := NewPromptBuilder("English", "German").WithTranslateImages(true).BuildUserPrompt(chunk)

		assert.Contains(t, prompt, "from English to German")
		assert.Contains(t, prompt, "This is chunk 2/5. Translate only this fragment.")
		assert.Contains(t, prompt, "TRANSLATE the alt-text")
		assert.Contains(t, prompt, SourceBeginMarker)
		assert.Contains(t, prompt, SourceEndMarker)
	})
}

func TestPricing(t *testing.T) {
	p := DefaultPricing()
	assert.InDelta(t, 18.0, p.Cost(1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.0, p.Cost(0, 0), 1e-9)
	assert.InDelta(t, 0.0045, p.Cost(1000, 100), 1e-9)

	assert.Equal(t, 2, EstimateTokens("абвгде"))
	assert.Equal(t, 0, EstimateTokens("ab"))
}
