package markdown

import "regexp"

// The Translations callout at the top of each README references sibling git
// branches on GitHub. On the site those references must become links to the
// language editions instead. The patterns are fixed text the course authors
// maintain by hand, matched per locale.
var (
	ruEnglishBranchLink = regexp.MustCompile("(\\*\\*English \\(EN\\)\\*\\* — )\\[`main` branch\\]\\(https://github\\.com/[^)]+\\)")
	ruEnglishAnyLink    = regexp.MustCompile("(\\*\\*English \\(EN\\)\\*\\* — )\\[`main` branch\\]\\([^)]+\\)")
	ruEnglishLocalLink  = regexp.MustCompile(`(?m)^- (\*\*English \(EN\)\*\* — )\[English version\]\([^)]+\)\s*$`)
	ruThisBranch        = regexp.MustCompile("(\\*\\*Русский \\(RU\\)\\*\\* — )`ru` \\(эта ветка\\)")

	enRussianRelativeLink = regexp.MustCompile(`(\*\*Русский \(RU\)\*\* — )\[Russian version\]\(\./translations/ru/README\.md\)`)
	enRussianAnyLink      = regexp.MustCompile(`(\*\*Русский \(RU\)\*\* — )\[Russian version\]\([^)]+\)`)
	enThisBranch          = regexp.MustCompile("(\\*\\*English \\(EN\\)\\*\\* — )`main` \\(this branch\\)")
)

// rewriteTranslationsCallout swaps branch-reference text in the Translations
// callout for locale-appropriate site links. Runs before the per-link pass so
// the inserted links are already in their final form.
func (r Rewriter) rewriteTranslationsCallout(content string) string {
	base := r.SiteBasePath

	if r.Translated {
		content = ruEnglishBranchLink.ReplaceAllString(content, "${1}[English version]("+base+"/)")
		content = ruEnglishAnyLink.ReplaceAllString(content, "${1}[English version]("+base+"/)")
		content = ruEnglishLocalLink.ReplaceAllString(content, "- ${1}[English version]("+base+"/)")
		content = ruThisBranch.ReplaceAllString(content, "${1}[Русская версия]("+base+"/ru/)")
		return content
	}

	content = enRussianRelativeLink.ReplaceAllString(content, "${1}[Russian version]("+base+"/ru/)")
	content = enRussianAnyLink.ReplaceAllString(content, "${1}[Russian version]("+base+"/ru/)")
	content = enThisBranch.ReplaceAllString(content, "${1}[English version]("+base+"/)")
	return content
}
