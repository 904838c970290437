package describe

import (
	"strings"

	"golang.org/x/net/html"
)

// stripHTML removes HTML tags from markdown text, keeping only text content.
// The tokenizer never fails: malformed markup degrades to text or is
// silently dropped, which is exactly the behavior descriptions need.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))

	for {
		switch tok.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we are done.
			return b.String()
		case html.TextToken:
			b.Write(tok.Text())
		}
	}
}
