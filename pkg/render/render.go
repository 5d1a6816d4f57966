// Package render turns model output into bytes a 7-bit ASCII terminal can
// display.
package render

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Markers removed verbatim from replies. The backtick also covers code
// fences. Nothing else is reformatted.
var markdownMarkers = []string{"**", "##", "`"}

// Clean applies the whole pipeline: transliteration, markdown marker
// removal and CRLF line endings.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return CRLF(StripMarkdown(ToASCII(text)))
}

// ToASCII replaces non-ASCII characters with their closest ASCII spelling.
// Characters without one are dropped.
func ToASCII(text string) string {
	if isASCII(text) {
		return text
	}
	out := unidecode.Unidecode(text)
	if isASCII(out) {
		return out
	}

	var sb strings.Builder
	sb.Grow(len(out))
	for i := 0; i < len(out); i++ {
		if out[i] < 0x80 {
			sb.WriteByte(out[i])
		}
	}
	return sb.String()
}

// StripMarkdown deletes bold, heading and code markers.
func StripMarkdown(text string) string {
	for _, marker := range markdownMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	return text
}

// CRLF renders every line feed as a carriage return + line feed pair.
// Existing CRLF pairs are kept as they are.
func CRLF(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", "\r\n")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
