// Package textutil holds the text normalization helpers shared by the
// transcription pipeline and report rendering.
package textutil

import (
	"fmt"
	"regexp"
	"strings"
)

const zeroWidthSpace = "​"

var (
	missingSpaceRe   = regexp.MustCompile(`([.!?])([A-Za-z0-9"'])`)
	multiSpaceRe     = regexp.MustCompile(`\s{2,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.!?;:])`)
	tokenSplitRe     = regexp.MustCompile(`(\s+)`)
)

// NormalizeSentenceSpacing fixes missing spaces after sentence punctuation
// and collapses over-spacing. Handles cases like "taught CS51.So you've"
// becoming "taught CS51. So you've".
func NormalizeSentenceSpacing(text string) string {
	if text == "" {
		return text
	}
	text = missingSpaceRe.ReplaceAllString(text, "$1 $2")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// FormatMMSS renders a second offset as mm:ss. Negative values clamp to zero.
func FormatMMSS(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// SoftBreakLongToken inserts zero-width breaks into long runs of non-space
// characters so table cells can wrap them. Whitespace is preserved as-is.
func SoftBreakLongToken(s string, every int) string {
	if s == "" || every <= 0 {
		return s
	}
	parts := tokenSplitRe.Split(s, -1)
	seps := tokenSplitRe.FindAllString(s, -1)
	var b strings.Builder
	for i, token := range parts {
		if token != "" {
			runes := []rune(token)
			for j := 0; j < len(runes); j += every {
				end := j + every
				if end > len(runes) {
					end = len(runes)
				}
				if j > 0 {
					b.WriteString(zeroWidthSpace)
				}
				b.WriteString(string(runes[j:end]))
			}
		}
		if i < len(seps) {
			b.WriteString(seps[i])
		}
	}
	return b.String()
}
