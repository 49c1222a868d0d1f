// Package extract converts raw attachment bytes into plain text.
//
// Extraction is total: every failure path yields a bracket-delimited marker
// string instead of an error, so downstream code can treat the output
// uniformly as "some string describing or containing the document".
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Markers returned for content that cannot be extracted.
const (
	EmptyFileMarker = "[Empty file]"
	LegacyDocMarker = "[Legacy DOC format - manual conversion needed]"
)

// DefaultPreviewLength bounds Preview output unless a caller overrides it.
const DefaultPreviewLength = 500

// minMeaningfulPDFText is the trimmed-text threshold below which a PDF is
// treated as image-based/scanned.
const minMeaningfulPDFText = 50

// Extractor dispatches extraction by lowercase filename suffix.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of content, or a marker string. It never
// returns an error and never panics.
func (e *Extractor) Extract(content []byte, filename string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("[Extraction failed: %s]", truncate(fmt.Sprint(r), 100))
		}
	}()

	if len(content) == 0 {
		return EmptyFileMarker
	}

	ext := ""
	if lower := strings.ToLower(filename); strings.Contains(lower, ".") {
		ext = lower[strings.LastIndex(lower, ".")+1:]
	}

	switch ext {
	case "pdf":
		return extractPDF(content)
	case "docx":
		return extractDOCX(content)
	case "txt", "text":
		return extractTXT(content)
	case "doc":
		return LegacyDocMarker
	default:
		return fmt.Sprintf("[Unsupported format: .%s]", ext)
	}
}

// extractTXT decodes bytes trying an ordered list of encodings and returns
// the first that decodes cleanly. UTF-8 is validated directly; the charmap
// fallbacks accept any byte sequence, so the final force-decode is a safety
// net only.
func extractTXT(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(content)
		if err == nil {
			return string(decoded)
		}
	}

	return strings.ToValidUTF8(string(content), "")
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Preview produces a whitespace-collapsed, truncated rendering of text.
// Marker strings (anything starting with "[") pass through unchanged.
func Preview(text string, maxLength int) string {
	if text == "" || strings.HasPrefix(text, "[") {
		return text
	}

	clean := strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(clean) <= maxLength {
		return clean
	}
	return string([]rune(clean)[:maxLength]) + "..."
}

// truncate caps s at n runes for inclusion in marker strings.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
