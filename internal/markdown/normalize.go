package markdown

import (
	"regexp"
	"strings"
)

var (
	// A list item: optional blockquote marker, then an ordered or
	// unordered marker followed by at least one space.
	listItemPattern = regexp.MustCompile(`^(\s*>?\s*)(\d+\.\s+|-\s+|\*\s+|\+\s+)`)
	// A bare blockquote continuation line (">" with nothing after it).
	blockquoteBlankPattern  = regexp.MustCompile(`^\s*>\s*$`)
	blockquotePrefixPattern = regexp.MustCompile(`^(\s*>)`)
)

// NormalizeLists inserts a blank line (or blockquote continuation line) in
// front of any list whose first item directly follows regular text. The
// downstream renderer only recognizes lists preceded by a blank line.
// Content inside ``` and ~~~ fences is left alone. Idempotent.
func NormalizeLists(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	inFence := false
	var fenceMarker string

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "```") || strings.HasPrefix(stripped, "~~~") {
			if inFence && strings.HasPrefix(stripped, fenceMarker) {
				inFence = false
			} else if !inFence {
				fenceMarker = stripped[:3]
				inFence = true
			}
			result = append(result, line)
			continue
		}

		if inFence {
			result = append(result, line)
			continue
		}

		if m := listItemPattern.FindStringSubmatch(line); m != nil && len(result) > 0 {
			prev := result[len(result)-1]
			if needsSeparator(prev) {
				prefix := m[1]
				if strings.HasPrefix(prefix, ">") {
					if bm := blockquotePrefixPattern.FindStringSubmatch(prefix); bm != nil {
						result = append(result, bm[1])
					}
				} else {
					result = append(result, "")
				}
			}
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// needsSeparator reports whether a list item after prev requires a blank
// line. Blank lines, other list items, and bare blockquote continuations
// already separate the list from preceding text.
func needsSeparator(prev string) bool {
	if strings.TrimSpace(prev) == "" {
		return false
	}
	if listItemPattern.MatchString(prev) {
		return false
	}
	return !blockquoteBlankPattern.MatchString(prev)
}
