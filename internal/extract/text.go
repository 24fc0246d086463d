package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText 把文件内容解码为 UTF-8。encodingName 为空时按 BOM 自动检测，
// 没有 BOM 且不是合法 UTF-8 时按 windows-1252 解码。
func DecodeText(data []byte, encodingName string) (string, error) {
	if name := strings.TrimSpace(encodingName); name != "" {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return "", fmt.Errorf("unknown encoding %q: %w", name, err)
		}
		return decodeWith(enc, data)
	}

	// BOMOverride 识别 UTF-8 / UTF-16 的 BOM，没有 BOM 时使用回退编码
	fallback := unicode.UTF8.NewDecoder()
	if !utf8.Valid(data) && !hasUTF16BOM(data) {
		enc, _ := htmlindex.Get("windows-1252")
		fallback = enc.NewDecoder()
	}
	res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(fallback)))
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(res), nil
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(enc.NewDecoder())))
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(res), nil
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}
