// Package describe derives SEO metadata (page title and meta description)
// from raw markdown. It mirrors the page-markdown hook contract of the site
// generator: the hook receives the markdown and a mutable page, and returns
// the markdown unchanged.
package describe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default description length bounds.
const (
	DefaultMaxLength = 160
	DefaultMinLength = 100
)

// Page carries the mutable page state the extractor updates.
type Page struct {
	Title string
	Meta  map[string]any
}

// Description returns the page's meta description, or "".
func (p *Page) Description() string {
	if p.Meta == nil {
		return ""
	}
	if d, ok := p.Meta["description"].(string); ok {
		return d
	}
	return ""
}

// Extractor derives titles and meta descriptions from markdown content.
type Extractor struct {
	// MaxLength is the truncation bound for descriptions, including the
	// ellipsis appended on truncation.
	MaxLength int
	// MinLength is the amount of paragraph text considered enough; once
	// reached, no further lines are accumulated.
	MinLength int
}

// New returns an Extractor with the default length bounds.
func New() *Extractor {
	return &Extractor{MaxLength: DefaultMaxLength, MinLength: DefaultMinLength}
}

// Apply updates the page's title from the first H1 heading and, when no
// description is set yet, derives one from the first meaningful paragraph.
// The markdown is returned unchanged. All inputs degrade to empty-string
// results; Apply never fails.
func (e *Extractor) Apply(markdown string, page *Page) string {
	if title := ExtractTitle(markdown); title != "" && title != page.Title {
		page.Title = title
	}

	if page.Description() != "" {
		return markdown
	}

	if description := e.ExtractDescription(markdown); description != "" {
		if page.Meta == nil {
			page.Meta = make(map[string]any)
		}
		page.Meta["description"] = description
	}

	return markdown
}

var (
	boldPattern       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^*]+)\*`)
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
)

// ExtractTitle returns the content of the first line beginning with a single
// "# " marker, with bold/italic/inline-code markup stripped. Returns "" when
// no H1 exists.
func ExtractTitle(markdown string) string {
	if markdown == "" {
		return ""
	}

	for _, line := range strings.Split(markdown, "\n") {
		stripped := strings.TrimSpace(line)
		if !strings.HasPrefix(stripped, "# ") {
			continue
		}
		title := strings.TrimSpace(stripped[2:])
		title = boldPattern.ReplaceAllString(title, "$1")
		title = italicPattern.ReplaceAllString(title, "$1")
		title = inlineCodePattern.ReplaceAllString(title, "$1")
		return title
	}

	return ""
}

var (
	fencedCodePattern = regexp.MustCompile("(?s)```.*?```")
	tildeCodePattern  = regexp.MustCompile("(?s)~~~.*?~~~")
	codeSpanPattern   = regexp.MustCompile("`[^`]+`")
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	imagePattern      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)

	underscoreBoldPattern   = regexp.MustCompile(`__([^_]+)__`)
	underscoreItalicPattern = regexp.MustCompile(`_([^_]+)_`)
	whitespacePattern       = regexp.MustCompile(`\s+`)

	// Double quotes break the content attribute of the generated meta
	// tag; normalize every double-quote form to a single quote.
	quoteReplacer = strings.NewReplacer(`"`, "'", "“", "'", "”", "'", "«", "'", "»", "'")
)

// ExtractDescription derives a meta description from the first meaningful
// paragraph after the title. Returns "" when no qualifying paragraph exists.
func (e *Extractor) ExtractDescription(markdown string) string {
	if markdown == "" {
		return ""
	}

	// Code, link targets, images, and HTML never belong in a description.
	markdown = fencedCodePattern.ReplaceAllString(markdown, "")
	markdown = tildeCodePattern.ReplaceAllString(markdown, "")
	markdown = codeSpanPattern.ReplaceAllString(markdown, "")
	markdown = linkPattern.ReplaceAllString(markdown, "$1")
	markdown = imagePattern.ReplaceAllString(markdown, "")
	markdown = stripHTML(markdown)

	lines := strings.Split(markdown, "\n")

	// Skip the H1, any leading headings, and blank lines to reach the
	// first content line.
	contentStart := 0
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "# ") {
			contentStart = i + 1
			continue
		}
		if strings.HasPrefix(stripped, "##") {
			continue
		}
		if stripped == "" {
			continue
		}
		contentStart = i
		break
	}

	// Accumulate the first meaningful paragraph.
	var paragraph []string
	for i := contentStart; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		// The next section starts; whatever we have is the paragraph.
		if strings.HasPrefix(line, "## ") {
			break
		}

		if line == "" ||
			strings.HasPrefix(line, "- ") ||
			strings.HasPrefix(line, "* ") ||
			strings.HasPrefix(line, "1. ") ||
			strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "***") ||
			strings.HasPrefix(line, "```") {
			continue
		}

		// Very short lines make poor descriptions
		if utf8.RuneCountInString(line) > 20 {
			paragraph = append(paragraph, line)
			if utf8.RuneCountInString(strings.Join(paragraph, " ")) > e.MinLength {
				break
			}
		}
	}

	if len(paragraph) == 0 {
		return ""
	}

	text := strings.Join(paragraph, " ")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = underscoreBoldPattern.ReplaceAllString(text, "$1")
	text = underscoreItalicPattern.ReplaceAllString(text, "$1")

	text = quoteReplacer.Replace(text)

	return e.truncate(text)
}

// truncate trims text to MaxLength runes at the last word boundary and marks
// the cut with an ellipsis. The ellipsis counts toward the bound, so the
// result never exceeds MaxLength.
func (e *Extractor) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= e.MaxLength {
		return text
	}

	cut := string(runes[:e.MaxLength-3])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
