package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// 术语条目中可接受的键名，按优先级排列
var (
	glossarySourceKeys = []string{"term_en", "term", "source"}
	glossaryTargetKeys = []string{"term_ru", "translation", "target"}
)

// LoadGlossary 读取术语表。支持 JSON 数组、TOML 的 [[term]] 表和 YAML 列表，
// 保持文件中的顺序。文件不存在时返回空术语表。
func LoadGlossary(path string) ([]translation.GlossaryEntry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read glossary: %w", err)
	}

	var items []interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var doc struct {
			Term []map[string]interface{} `toml:"term"`
		}
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parse glossary %s: %w", path, err)
		}
		for _, t := range doc.Term {
			items = append(items, t)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse glossary %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse glossary %s: %w", path, err)
		}
	}

	entries := make([]translation.GlossaryEntry, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry := translation.GlossaryEntry{
			Source: firstString(fields, glossarySourceKeys),
			Target: firstString(fields, glossaryTargetKeys),
		}
		if entry.Source == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func firstString(fields map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
