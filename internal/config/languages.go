package config

import (
	"sort"
	"strings"
)

// ProjectURL 译文署名中引用的项目地址
const ProjectURL = "https://github.com/ais-cube/md-translate-ru"

// DefaultLangPair 未知语言对时回退的方向
const DefaultLangPair = "en-ru"

// Language 语言对的两端名称
type Language struct {
	Source string
	Target string
}

// Languages 支持的语言对
var Languages = map[string]Language{
	"en-ru": {"English", "Russian"},
	"ru-en": {"Russian", "English"},
	"en-de": {"English", "German"},
	"en-es": {"English", "Spanish"},
	"en-fr": {"English", "French"},
	"en-zh": {"English", "Chinese"},
	"en-ja": {"English", "Japanese"},
	"en-pt": {"English", "Portuguese"},
	"de-en": {"German", "English"},
	"fr-en": {"French", "English"},
	"es-en": {"Spanish", "English"},
}

var attributions = map[string]string{
	"ru": "Переведено с помощью **" + ProjectURL + "**",
	"en": "Translated with **" + ProjectURL + "**",
	"de": "Ubersetzt mit **" + ProjectURL + "**",
	"es": "Traducido con **" + ProjectURL + "**",
	"fr": "Traduit avec **" + ProjectURL + "**",
	"zh": "使用 **" + ProjectURL + "** 翻译",
	"ja": "**" + ProjectURL + "** で翻訳",
	"pt": "Traduzido com **" + ProjectURL + "**",
}

// LookupLanguage 返回语言对的名称，未知语言对回退到 en-ru
func LookupLanguage(pair string) Language {
	if lang, ok := Languages[strings.ToLower(pair)]; ok {
		return lang
	}
	return Languages[DefaultLangPair]
}

// TargetCode 返回语言对的目标语言代码，例如 en-de 返回 de
func TargetCode(pair string) string {
	pair = strings.ToLower(pair)
	if _, ok := Languages[pair]; !ok {
		pair = DefaultLangPair
	}
	_, target, _ := strings.Cut(pair, "-")
	return target
}

// Attribution 返回目标语言的署名行，没有对应语言时使用英文
func Attribution(targetCode string) string {
	if a, ok := attributions[targetCode]; ok {
		return a
	}
	return attributions["en"]
}

// LangPairs 返回排序后的语言对列表
func LangPairs() []string {
	pairs := make([]string, 0, len(Languages))
	for pair := range Languages {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}
