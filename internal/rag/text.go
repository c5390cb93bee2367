package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	multiSpace      = regexp.MustCompile(` +`)
	hyphenBreak     = regexp.MustCompile(`(\w+)-\n(\w+)`)
	manyNewlines    = regexp.MustCompile(`\n{3,}`)
	pageNumberLine  = regexp.MustCompile(`(?m)^\d+$`)
	htmlTagSniffing = regexp.MustCompile(`(?i)<(?:html|body|div|p|br|ul|ol|li|h[1-6]|span|section|article|table)[\s>/]`)
)

// CleanText normalises extracted text for chunking and embedding.
// Aggressive mode also drops page-number lines and stray lines of two runes or less.
func CleanText(text string, aggressive bool) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)

	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) || unicode.In(r, unicode.Cf, unicode.Co, unicode.Cs) {
			return -1
		}
		return r
	}, text)

	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = multiSpace.ReplaceAllString(text, " ")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = manyNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	if aggressive {
		text = pageNumberLine.ReplaceAllString(text, "")
		kept := make([]string, 0, len(lines))
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || utf8.RuneCountInString(trimmed) > 2 {
				kept = append(kept, line)
			}
		}
		text = strings.Join(kept, "\n")
	}

	return strings.TrimSpace(text)
}

const (
	LanguageKorean  = "ko"
	LanguageEnglish = "en"
	LanguageMixed   = "mixed"
	LanguageUnknown = "unknown"
)

// DetectLanguage classifies text by its share of Hangul syllables and ASCII letters.
func DetectLanguage(text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 10 {
		return LanguageUnknown
	}

	korean, english := 0, 0
	for _, r := range text {
		switch {
		case isHangulSyllable(r):
			korean++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			english++
		}
	}

	total := korean + english
	if total == 0 {
		return LanguageUnknown
	}

	koRatio := float64(korean) / float64(total)
	enRatio := float64(english) / float64(total)
	switch {
	case koRatio > 0.6:
		return LanguageKorean
	case enRatio > 0.6:
		return LanguageEnglish
	case koRatio > 0.2 && enRatio > 0.2:
		return LanguageMixed
	}
	return LanguageUnknown
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ContentHash is the hex sha256 of text, used to spot duplicate uploads.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// LooksLikeHTML reports whether text contains common block-level markup.
func LooksLikeHTML(text string) bool {
	return htmlTagSniffing.MatchString(text)
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "section": true, "article": true, "header": true, "footer": true,
}

// StripHTML reduces an HTML job posting to its text. Block elements become
// line breaks so section headers stay on their own lines.
func StripHTML(input string) (string, error) {
	root, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			sb.WriteString("\n")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if block {
			sb.WriteString("\n")
		}
	}
	walk(root)

	return sb.String(), nil
}
