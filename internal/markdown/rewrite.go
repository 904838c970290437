package markdown

import (
	"regexp"
	"strings"
)

// Rewriter rewrites internal markdown links for the hosted site layout.
// The zero value is not useful; fill in the URL fields from configuration.
type Rewriter struct {
	// GitHubBaseURL is the browse prefix lab links are rewritten to,
	// e.g. "https://github.com/owner/repo/blob/main".
	GitHubBaseURL string
	// SiteBasePath is the path prefix the site is hosted under,
	// e.g. "/ai-agent-course".
	SiteBasePath string
	// Translated selects the translated-locale rewrite rules.
	Translated bool
}

// Rewrite returns content with the Translations callout adjusted and every
// internal link rewritten for the destination layout. External and
// anchor-only links pass through unchanged.
func (r Rewriter) Rewrite(content string) string {
	content = r.rewriteTranslationsCallout(content)
	return r.rewriteLinks(content)
}

// rewriteLinks scans for [text](path) tokens iteratively instead of with a
// single content-wide regex, which avoids catastrophic backtracking on
// pathological input.
func (r Rewriter) rewriteLinks(content string) string {
	var result strings.Builder
	result.Grow(len(content))

	i := 0
	for i < len(content) {
		if content[i] == '[' {
			if newI, processed := r.tryProcessLink(content, i, &result); processed {
				i = newI
				continue
			}
		}

		result.WriteByte(content[i])
		i++
	}

	return result.String()
}

// tryProcessLink attempts to process a markdown link starting at position i.
// Returns the new position and whether a link was successfully processed.
// Image links are handled the same way as regular links: binary file
// extensions are protected by the path rules themselves.
func (r Rewriter) tryProcessLink(content string, i int, result *strings.Builder) (int, bool) {
	closeBracket := findClosingBracket(content, i+1)
	if closeBracket == -1 {
		return 0, false
	}

	// Check if there's a ( immediately after ]
	if closeBracket+1 >= len(content) || content[closeBracket+1] != '(' {
		result.WriteString(content[i : closeBracket+1])
		return closeBracket + 1, true
	}

	closeParen := findClosingParen(content, closeBracket+2)
	if closeParen == -1 {
		result.WriteString(content[i : closeBracket+2])
		return closeBracket + 2, true
	}

	text := content[i+1 : closeBracket]
	path := content[closeBracket+2 : closeParen]

	result.WriteByte('[')
	result.WriteString(text)
	result.WriteString("](")
	result.WriteString(r.RewritePath(path))
	result.WriteByte(')')
	return closeParen + 1, true
}

// findClosingBracket finds the next ] character on the same paragraph.
func findClosingBracket(content string, start int) int {
	for i := start; i < len(content); i++ {
		if content[i] == ']' {
			return i
		}
		if content[i] == '\n' {
			// Allow one newline but not a blank line
			if i+1 < len(content) && content[i+1] == '\n' {
				return -1
			}
		}
	}
	return -1
}

// findClosingParen finds the next ) character within the link destination.
func findClosingParen(content string, start int) int {
	for i := start; i < len(content); i++ {
		if content[i] == ')' {
			return i
		}
		// URLs don't span lines and don't contain spaces
		if content[i] == '\n' || content[i] == ' ' {
			return -1
		}
	}
	return -1
}

var labPathPattern = regexp.MustCompile(`labs/(lab\d+[^/)]+)`)

// knownFileSuffixes are destinations that already name a concrete file (or
// end in a slash); everything else with a path separator is assumed to be a
// directory reference.
var knownFileSuffixes = []string{".md", ".html", ".pdf", ".png", ".jpg", ".jpeg", ".gif", ".svg", "/"}

// RewritePath rewrites a single link destination. It is a pure function of
// the path and the rewriter's locale: the same input always produces the
// same output.
func (r Rewriter) RewritePath(path string) string {
	// External URLs and pure anchors stay untouched
	if isExternalOrAnchor(path) {
		return path
	}

	// Lab references point back at the repository browse URL; labs are not
	// copied into the site.
	if strings.Contains(path, "labs/lab") || strings.Contains(path, "./labs/") || strings.Contains(path, "../labs/") {
		if m := labPathPattern.FindStringSubmatch(path); m != nil {
			if r.Translated {
				return r.GitHubBaseURL + "/translations/ru/labs/" + m[1] + "/README.md"
			}
			return r.GitHubBaseURL + "/labs/" + m[1] + "/README.md"
		}
	}

	// The book directory becomes the site root, so the segment disappears.
	switch {
	case strings.Contains(path, "/book/"):
		path = strings.ReplaceAll(path, "/book/", "/")
	case strings.HasPrefix(path, "book/"):
		path = strings.TrimPrefix(path, "book/")
	}

	// Translation paths: already at the ru root when building ru, a ../ru/
	// hop when building the default locale.
	if strings.Contains(path, "translations/ru/") {
		if r.Translated {
			path = strings.ReplaceAll(path, "translations/ru/", "")
		} else {
			path = strings.ReplaceAll(path, "translations/ru/", "../ru/")
		}
	}

	// A leading ./ is dropped before the README rules so that ./README.md
	// counts as the root-level page.
	path = strings.TrimPrefix(path, "./")

	// README.md references become directory-style URLs.
	switch {
	case strings.HasSuffix(path, "/README.md"):
		path = strings.TrimSuffix(path, "README.md")
	case strings.HasSuffix(path, "README.md"):
		if strings.Contains(path, "/") {
			path = strings.TrimSuffix(path, "README.md")
			if !strings.HasSuffix(path, "/") {
				path += "/"
			}
		} else {
			// Bare root-level README.md
			path = "index.md"
		}
	case strings.Contains(path, "/README.md"):
		path = strings.ReplaceAll(path, "/README.md", "/")
	}

	// Remaining extensionless multi-segment paths reference directories.
	if needsTrailingSlash(path) {
		path += "/"
	}

	return path
}

func isExternalOrAnchor(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "mailto:") ||
		strings.HasPrefix(path, "#")
}

func needsTrailingSlash(path string) bool {
	if isExternalOrAnchor(path) {
		return false
	}
	for _, suffix := range knownFileSuffixes {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return strings.Contains(path, "/")
}
