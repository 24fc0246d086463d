package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nerdneilsfield/go-md-translator/pkg/translation"
)

// InputExtensions 可以翻译的输入文件扩展名
var InputExtensions = []string{".md", ".markdown", ".txt", ".docx", ".doc", ".pdf"}

// IsSupported 判断文件扩展名是否受支持
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Discover 查找输入路径下的文件。输入为文件时返回它本身，
// 为目录时返回其中（不递归）所有受支持的文件，按路径排序。
func Discover(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input path %s: %w", input, err)
	}

	if !info.IsDir() {
		if !IsSupported(input) {
			return nil, fmt.Errorf("unsupported input format: %s", filepath.Ext(input))
		}
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", input, err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		path := filepath.Join(input, entry.Name())
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", translation.ErrNoInputFiles, input)
	}
	return files, nil
}

// FilterFiles 按文件名模糊匹配过滤，模式为空时原样返回
func FilterFiles(files []string, pattern string) []string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return files
	}

	var matched []string
	for _, f := range files {
		if fuzzy.MatchNormalizedFold(pattern, filepath.Base(f)) {
			matched = append(matched, f)
		}
	}
	return matched
}
