package config

import (
	"path/filepath"

	"golang.org/x/text/language"
)

// Locale identifies one language edition of the course site.
type Locale struct {
	Code string
	Tag  language.Tag
	// Subpath is the path component below the site root ("" for the
	// default locale, "ru" for the translation).
	Subpath string
	// SourceSubdir is the directory below the repo root holding this
	// locale's content tree ("" means the repo root itself).
	SourceSubdir string
}

// Translated reports whether this is a non-default locale.
func (l Locale) Translated() bool { return l.Subpath != "" }

// BookDir returns the locale's book directory below the given repo root.
func (l Locale) BookDir(repoRoot string) string {
	if l.SourceSubdir == "" {
		return filepath.Join(repoRoot, "book")
	}
	return filepath.Join(repoRoot, l.SourceSubdir, "book")
}

// Locales returns the language editions to build, default locale first. The
// processing order matters: auxiliary files enumerate pages from every
// locale, so all locales are walked before they are written.
func (c *Config) Locales() []Locale {
	return []Locale{
		{Code: "en", Tag: language.English},
		{Code: "ru", Tag: language.Russian, Subpath: "ru", SourceSubdir: filepath.Join("translations", "ru")},
	}
}
