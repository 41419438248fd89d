package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagExpr = regexp.MustCompile(`(?i)<\s*(html|body|div|p|span|table|br|h[1-6]|ul|ol|li|section|article)\b[^>]*>`)
	spaceExpr   = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankExpr   = regexp.MustCompile(`\n{3,}`)
)

// blockSelectors get a line break after their text so words never glue together.
const blockSelectors = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, table"

// LooksLikeHTML reports whether text carries markup worth stripping.
func LooksLikeHTML(text string) bool {
	return htmlTagExpr.MatchString(text)
}

// VisibleText returns the human-readable text of an extracted document.
// Markup is parsed with goquery, scripts and styles are dropped and whitespace is collapsed.
// Plain text only has its whitespace collapsed.
func VisibleText(text string) string {
	if !LooksLikeHTML(text) {
		return collapse(text)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return collapse(text)
	}

	doc.Find("script, style, noscript, head, template").Remove()
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return collapse(root.Text())
}

func collapse(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = spaceExpr.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankExpr.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
