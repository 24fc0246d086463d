package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

func TestLoadGlossary(t *testing.T) {
	dir := t.TempDir()
	want := []translation.GlossaryEntry{
		{Source: "ledger", Target: "реестр"},
		{Source: "stake", Target: "стейк"},
		{Source: "vault", Target: "хранилище"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json with mixed keys", "glossary.json", `[
			{"term_en": "ledger", "term_ru": "реестр"},
			{"term": "stake", "translation": "стейк"},
			"not an object",
			{"source": "vault", "target": "хранилище"},
			{"note": "no source term"}
		]`},
		{"toml", "glossary.toml", `
[[term]]
term_en = "ledger"
term_ru = "реестр"

[[term]]
term = "stake"
translation = "стейк"

[[term]]
source = "vault"
target = "хранилище"
`},
		{"yaml", "glossary.yaml", `
- term_en: ledger
  term_ru: реестр
- source: stake
  target: стейк
- term: vault
  translation: хранилище
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := LoadGlossary(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, entries)
		})
	}
}

func TestLoadGlossary_Missing(t *testing.T) {
	entries, err := LoadGlossary(filepath.Join(t.TempDir(), "glossary.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = LoadGlossary("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadGlossary_Invalid(t *testing.T) {
	_, err := LoadGlossary(writeFile(t, t.TempDir(), "glossary.json", "{not json"))
	assert.Error(t, err)
}
