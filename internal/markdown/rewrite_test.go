package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testGitHubBase = "https://github.com/kshvakov/ai-agent-course/blob/main"

func TestRewritePath(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		translated bool
		want       string
	}{
		{
			name: "external https link unchanged",
			path: "https://example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "external http link unchanged",
			path: "http://example.com",
			want: "http://example.com",
		},
		{
			name: "mailto unchanged",
			path: "mailto:author@example.com",
			want: "mailto:author@example.com",
		},
		{
			name: "anchor-only link unchanged",
			path: "#setup",
			want: "#setup",
		},
		{
			name: "lab link becomes GitHub browse URL",
			path: "../labs/lab01-basics",
			want: testGitHubBase + "/labs/lab01-basics/README.md",
		},
		{
			name: "lab link with README suffix",
			path: "./labs/lab00-capability-check/README.md",
			want: testGitHubBase + "/labs/lab00-capability-check/README.md",
		},
		{
			name:       "lab link in translated locale uses translations subpath",
			path:       "labs/lab02-tools",
			translated: true,
			want:       testGitHubBase + "/translations/ru/labs/lab02-tools/README.md",
		},
		{
			name: "book prefix with root readme becomes index.md",
			path: "./book/README.md",
			want: "index.md",
		},
		{
			name: "bare book prefix stripped",
			path: "book/chapter-01/README.md",
			want: "chapter-01/",
		},
		{
			name: "embedded book segment stripped",
			path: "../book/chapter-02/README.md",
			want: "../chapter-02/",
		},
		{
			name: "relative readme becomes directory URL",
			path: "some/dir/README.md",
			want: "some/dir/",
		},
		{
			name: "parent readme becomes directory URL",
			path: "../chapter-03/README.md",
			want: "../chapter-03/",
		},
		{
			name: "bare readme at root becomes index.md",
			path: "README.md",
			want: "index.md",
		},
		{
			name: "translation link from default locale",
			path: "translations/ru/book/README.md",
			want: "../ru/",
		},
		{
			name:       "translation prefix removed in translated locale",
			path:       "translations/ru/book/chapter-01/README.md",
			translated: true,
			want:       "chapter-01/",
		},
		{
			name: "plain markdown file untouched",
			path: "chapter-01/concepts.md",
			want: "chapter-01/concepts.md",
		},
		{
			name: "leading dot-slash stripped",
			path: "./chapter-01/concepts.md",
			want: "chapter-01/concepts.md",
		},
		{
			name: "extensionless directory reference gets trailing slash",
			path: "chapter-01/diagrams",
			want: "chapter-01/diagrams/",
		},
		{
			name: "single-segment extensionless path untouched",
			path: "appendix",
			want: "appendix",
		},
		{
			name: "image path untouched",
			path: "images/architecture.png",
			want: "images/architecture.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course", Translated: tt.translated}
			assert.Equal(t, tt.want, r.RewritePath(tt.path))
		})
	}
}

func TestRewritePathIsPure(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}
	for _, path := range []string{"../labs/lab01-basics", "book/chapter-01/README.md", "#anchor", "https://example.com"} {
		first := r.RewritePath(path)
		assert.Equal(t, first, r.RewritePath(path), "path %q", path)
	}
}

func TestRewriteContent(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}

	in := "See [the first chapter](book/chapter-01/README.md) and [Lab 1](../labs/lab01-basics).\n" +
		"External: [Go](https://go.dev) and [section](#setup).\n"
	want := "See [the first chapter](chapter-01/) and [Lab 1](" + testGitHubBase + "/labs/lab01-basics/README.md).\n" +
		"External: [Go](https://go.dev) and [section](#setup).\n"

	assert.Equal(t, want, r.Rewrite(in))
}

func TestRewriteContentRewritesImagePaths(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}

	// The extension check protects image files; only the book segment is dropped.
	in := "![diagram](book/chapter-01/images/flow.png)"
	assert.Equal(t, "![diagram](chapter-01/images/flow.png)", r.Rewrite(in))
}

func TestRewriteContentLeavesMalformedLinksAlone(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}

	tests := []string{
		"a [dangling bracket\n\nnew paragraph](x.md)",
		"code `[not a link]` here",
		"[text](path with space.md)",
		"[unclosed](book/README.md",
	}
	for _, in := range tests {
		assert.Equal(t, in, r.Rewrite(in), "input %q", in)
	}
}
