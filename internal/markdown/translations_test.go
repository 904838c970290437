package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslationsCalloutDefaultLocale(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "russian version relative link becomes site link",
			in:   "- **Русский (RU)** — [Russian version](./translations/ru/README.md)",
			want: "- **Русский (RU)** — [Russian version](/ai-agent-course/ru/)",
		},
		{
			name: "russian version arbitrary link becomes site link",
			in:   "- **Русский (RU)** — [Russian version](../translations/ru/book/README.md)",
			want: "- **Русский (RU)** — [Russian version](/ai-agent-course/ru/)",
		},
		{
			name: "this-branch marker becomes site link",
			in:   "- **English (EN)** — `main` (this branch)",
			want: "- **English (EN)** — [English version](/ai-agent-course/)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.rewriteTranslationsCallout(tt.in))
		})
	}
}

func TestTranslationsCalloutTranslatedLocale(t *testing.T) {
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course", Translated: true}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "github branch link becomes site root",
			in:   "- **English (EN)** — [`main` branch](https://github.com/kshvakov/ai-agent-course/tree/main)",
			want: "- **English (EN)** — [English version](/ai-agent-course/)",
		},
		{
			name: "relative branch link becomes site root",
			in:   "- **English (EN)** — [`main` branch](../../book/README.md)",
			want: "- **English (EN)** — [English version](/ai-agent-course/)",
		},
		{
			name: "local english version link becomes site root",
			in:   "Translations:\n- **English (EN)** — [English version](../../book/README.md)\nNext line.",
			want: "Translations:\n- **English (EN)** — [English version](/ai-agent-course/)\nNext line.",
		},
		{
			name: "this-branch marker becomes ru site link",
			in:   "- **Русский (RU)** — `ru` (эта ветка)",
			want: "- **Русский (RU)** — [Русская версия](/ai-agent-course/ru/)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.rewriteTranslationsCallout(tt.in))
		})
	}
}

func TestTranslationsCalloutSurvivesLinkPass(t *testing.T) {
	// The callout rewrite runs before the per-link pass; the inserted site
	// links must come out of the full Rewrite unchanged.
	r := Rewriter{GitHubBaseURL: testGitHubBase, SiteBasePath: "/ai-agent-course"}

	in := "- **Русский (RU)** — [Russian version](./translations/ru/README.md)"
	got := r.Rewrite(in)
	assert.Equal(t, "- **Русский (RU)** — [Russian version](/ai-agent-course/ru/)", got)
}
