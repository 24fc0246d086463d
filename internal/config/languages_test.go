package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguages(t *testing.T) {
	assert.Len(t, LangPairs(), 11)
	assert.Equal(t, Language{"English", "German"}, LookupLanguage("en-de"))
	assert.Equal(t, Language{"English", "Russian"}, LookupLanguage("xx-yy"))

	assert.Equal(t, "ru", TargetCode("en-ru"))
	assert.Equal(t, "en", TargetCode("DE-EN"))
	assert.Equal(t, "ru", TargetCode("unknown"))
}

func TestAttribution(t *testing.T) {
	for _, code := range []string{"ru", "en", "de", "es", "fr", "zh", "ja", "pt"} {
		assert.Contains(t, Attribution(code), "**"+ProjectURL+"**", code)
	}
	assert.Equal(t, Attribution("en"), Attribution("ko"))
	assert.Equal(t, "Переведено с помощью **https://github.com/ais-cube/md-translate-ru**", Attribution("ru"))
}
