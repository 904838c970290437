// Package site mirrors the course markdown tree into a static-site-ready
// structure: README.md files become index.md, links are rewritten for the
// hosting layout, and SEO helper files are emitted alongside the pages.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kshvakov/docprep/internal/config"
	"github.com/kshvakov/docprep/internal/describe"
	"github.com/kshvakov/docprep/internal/frontmatter"
	"github.com/kshvakov/docprep/internal/logfields"
	"github.com/kshvakov/docprep/internal/markdown"
)

// extraFileNames are copied under their own names when found in chapter
// subdirectories.
var extraFileNames = []string{"MANUAL.md", "SOLUTION.md"}

// Preparer runs one full preparation pass over the course repository.
type Preparer struct {
	cfg       *config.Config
	extractor *describe.Extractor

	report  *BuildReport
	siteURL string
	// pages holds the directory-style site paths of every emitted
	// index.md ("" for the root, "chapter-01/", "ru/", ...).
	pages map[string]struct{}
}

// New creates a Preparer for the given configuration.
func New(cfg *config.Config) *Preparer {
	return &Preparer{
		cfg: cfg,
		extractor: &describe.Extractor{
			MaxLength: cfg.Describe.MaxLength,
			MinLength: cfg.Describe.MinLength,
		},
	}
}

type stageDef struct {
	name string
	fn   func(ctx context.Context) error
}

// Run wipes the output directory and regenerates the whole site structure.
// Stages run in a fixed order; auxiliary files are written last, after all
// pages are known, so the sitemap can enumerate them.
func (p *Preparer) Run(ctx context.Context) (*BuildReport, error) {
	p.report = newBuildReport()
	p.pages = make(map[string]struct{})
	p.siteURL = p.cfg.SiteURL()

	stages := []stageDef{{name: "clean", fn: p.stageClean}}
	for _, loc := range p.cfg.Locales() {
		stages = append(stages, stageDef{
			name: "prepare-" + loc.Code,
			fn: func(ctx context.Context) error {
				return p.stageLocale(ctx, loc)
			},
		})
	}
	stages = append(stages, stageDef{name: "auxiliary", fn: p.stageAuxiliary})

	slog.Info("Preparing documentation structure", logfields.BuildID(p.report.BuildID), logfields.Path(p.cfg.OutputDir()))

	for _, st := range stages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t0 := time.Now()
		if err := st.fn(ctx); err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.name, err)
		}
		dur := time.Since(t0)
		p.report.StageDurations[st.name] = dur
		slog.Debug("Stage complete", logfields.Stage(st.name), logfields.DurationMS(float64(dur.Microseconds())/1000))
	}

	p.report.Finished = time.Now()
	slog.Info("Documentation structure prepared",
		logfields.BuildID(p.report.BuildID),
		logfields.Count(p.report.Pages),
		logfields.DurationMS(float64(p.report.Duration().Microseconds())/1000))
	return p.report, nil
}

func (p *Preparer) stageClean(context.Context) error {
	out := p.cfg.OutputDir()
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (p *Preparer) rewriterFor(loc config.Locale) markdown.Rewriter {
	return markdown.Rewriter{
		GitHubBaseURL: p.cfg.GitHub.BaseURL(),
		SiteBasePath:  p.cfg.Site.BasePath,
		Translated:    loc.Translated(),
	}
}

// stageLocale mirrors one locale's book tree into the output directory.
func (p *Preparer) stageLocale(ctx context.Context, loc config.Locale) error {
	bookDir := loc.BookDir(p.cfg.RepoRoot)
	dstRoot := p.cfg.OutputDir()
	if loc.Translated() {
		dstRoot = filepath.Join(dstRoot, loc.Subpath)
	}

	if _, err := os.Stat(bookDir); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No book tree for locale, skipping", logfields.Locale(loc.Code), logfields.Path(bookDir))
		return nil
	}

	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dstRoot, err)
	}

	rw := p.rewriterFor(loc)

	// The book root README becomes the locale's front page.
	if err := p.copyReadmeToIndex(bookDir, dstRoot, rw, loc); err != nil {
		return err
	}

	entries, err := os.ReadDir(bookDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", bookDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		src := filepath.Join(bookDir, entry.Name())
		dst := filepath.Join(dstRoot, entry.Name())
		if err := p.processDirectory(ctx, src, dst, rw, loc); err != nil {
			return err
		}
	}
	return nil
}

// processDirectory mirrors one chapter directory recursively.
func (p *Preparer) processDirectory(ctx context.Context, src, dst string, rw markdown.Rewriter, loc config.Locale) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := p.copyReadmeToIndex(src, dst, rw, loc); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		subSrc := filepath.Join(src, entry.Name())
		subDst := filepath.Join(dst, entry.Name())
		if err := p.processDirectory(ctx, subSrc, subDst, rw, loc); err != nil {
			return err
		}
		if err := p.copyExtraFiles(subSrc, subDst); err != nil {
			return err
		}
	}
	return nil
}

// copyReadmeToIndex converts src/README.md into dst/index.md. Directories
// without a README produce nothing.
func (p *Preparer) copyReadmeToIndex(src, dst string, rw markdown.Rewriter, loc config.Locale) error {
	data, err := os.ReadFile(filepath.Join(src, "README.md"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read README in %s: %w", src, err)
	}

	content := rw.Rewrite(string(data))
	content = markdown.NormalizeLists(content)
	content = p.annotate(content)

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if err := os.WriteFile(filepath.Join(dst, "index.md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write index.md in %s: %w", dst, err)
	}

	p.recordPage(dst)
	p.report.Pages++
	slog.Debug("Prepared page", logfields.Page(p.relPage(dst)), logfields.Locale(loc.Code))
	return nil
}

// copyExtraFiles copies MANUAL.md and SOLUTION.md under their own names.
// Extras keep the default-locale rewrite rules regardless of the tree they
// sit in; their lab and book references resolve the same way.
func (p *Preparer) copyExtraFiles(src, dst string) error {
	rw := markdown.Rewriter{
		GitHubBaseURL: p.cfg.GitHub.BaseURL(),
		SiteBasePath:  p.cfg.Site.BasePath,
	}

	for _, name := range extraFileNames {
		data, err := os.ReadFile(filepath.Join(src, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s in %s: %w", name, src, err)
		}

		content := rw.Rewrite(string(data))
		content = markdown.NormalizeLists(content)

		if err := os.MkdirAll(dst, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dst, err)
		}
		if err := os.WriteFile(filepath.Join(dst, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s in %s: %w", name, dst, err)
		}
		p.report.ExtraFiles++
	}
	return nil
}

// annotate injects derived title and description front matter into a page.
// Pages with a hand-written description keep it.
func (p *Preparer) annotate(content string) string {
	if !p.cfg.Describe.Inject() {
		return content
	}

	fields, body := frontmatter.Parse(content)
	page := &describe.Page{Meta: fields}
	if t, ok := fields["title"].(string); ok {
		page.Title = t
	}

	p.extractor.Apply(body, page)

	if page.Title != "" {
		if page.Meta == nil {
			page.Meta = make(map[string]any)
		}
		page.Meta["title"] = page.Title
	}
	if len(page.Meta) == 0 {
		return content
	}

	composed, err := frontmatter.Compose(page.Meta, body)
	if err != nil {
		slog.Warn("Failed to compose front matter, keeping page as-is", logfields.Error(err))
		return content
	}
	return composed
}

// relPage returns the directory-style site path for an output directory.
func (p *Preparer) relPage(dst string) string {
	rel, err := filepath.Rel(p.cfg.OutputDir(), dst)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel) + "/"
}

func (p *Preparer) recordPage(dst string) {
	p.pages[p.relPage(dst)] = struct{}{}
}
