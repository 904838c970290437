package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kshvakov/docprep/internal/logfields"
)

// stageAuxiliary writes the SEO helper files once every page is known.
func (p *Preparer) stageAuxiliary(context.Context) error {
	out := p.cfg.OutputDir()
	sitemapURL := "sitemap.xml"
	if p.siteURL != "" {
		sitemapURL = joinURL(p.siteURL, "sitemap.xml")
	}

	robots := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", sitemapURL)
	if err := os.WriteFile(filepath.Join(out, "robots.txt"), []byte(robots), 0o644); err != nil {
		return fmt.Errorf("failed to write robots.txt: %w", err)
	}

	if err := os.WriteFile(filepath.Join(out, "sitemap.xml"), []byte(p.sitemapXML()), 0o644); err != nil {
		return fmt.Errorf("failed to write sitemap.xml: %w", err)
	}

	// A minimal sitemap-index at /ru/sitemap.xml avoids 404s from clients
	// probing for a language-local sitemap while keeping a single
	// authoritative sitemap at the root.
	if p.siteURL != "" {
		ruDir := filepath.Join(out, "ru")
		if err := os.MkdirAll(ruDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", ruDir, err)
		}
		index := sitemapIndexXML(joinURL(p.siteURL, "sitemap.xml"))
		if err := os.WriteFile(filepath.Join(ruDir, "sitemap.xml"), []byte(index), 0o644); err != nil {
			return fmt.Errorf("failed to write ru/sitemap.xml: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(out, "service-worker.js"), []byte(serviceWorkerJS), 0o644); err != nil {
		return fmt.Errorf("failed to write service-worker.js: %w", err)
	}

	slog.Debug("Auxiliary files written", logfields.URL(sitemapURL))
	return nil
}

// SitemapURLs returns the deduplicated, sorted sitemap entries for the
// pages emitted in the last run.
func (p *Preparer) SitemapURLs() []string {
	urls := make([]string, 0, len(p.pages))
	for page := range p.pages {
		if p.siteURL == "" {
			urls = append(urls, page)
			continue
		}
		urls = append(urls, joinURL(p.siteURL, page))
	}
	sort.Strings(urls)
	return urls
}

func (p *Preparer) sitemapXML() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<urlset xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">\n")
	for _, u := range p.SitemapURLs() {
		b.WriteString("  <url>\n")
		b.WriteString("    <loc>" + u + "</loc>\n")
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

func sitemapIndexXML(rootSitemap string) string {
	return strings.Join([]string{
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>",
		"<sitemapindex xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">",
		"  <sitemap>",
		"    <loc>" + rootSitemap + "</loc>",
		"  </sitemap>",
		"</sitemapindex>",
		"",
	}, "\n")
}

// joinURL joins a base URL with a relative path.
func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// serviceWorkerJS maps any nested */sitemap.xml request to the root sitemap.
// The site theme requests sitemap.xml relative to the current page URL,
// which 404s on static hosting for every non-root page.
const serviceWorkerJS = `/* eslint-disable no-restricted-globals */
// This Service Worker exists solely to map nested */sitemap.xml requests to the root sitemap.

self.addEventListener("install", () => {
  // Activate the updated worker ASAP
  self.skipWaiting();
});

self.addEventListener("activate", (event) => {
  // Take control of existing pages ASAP
  event.waitUntil(self.clients.claim());
});

self.addEventListener("fetch", (event) => {
  const req = event.request;
  if (!req || req.method !== "GET") return;

  let url;
  try {
    url = new URL(req.url);
  } catch (_) {
    return;
  }

  // Only same-origin requests
  if (url.origin !== self.location.origin) return;

  // Only */sitemap.xml
  if (!url.pathname.endsWith("/sitemap.xml")) return;

  // Root sitemap inside the current SW scope (works for / and project sites)
  const scopePath = new URL(self.registration.scope).pathname; // always ends with '/'
  const rootSitemapPath = scopePath + "sitemap.xml";

  // Let the root sitemap go to network normally (avoid loops)
  if (url.pathname === rootSitemapPath) return;

  event.respondWith(fetch(rootSitemapPath, { cache: "reload" }));
});
`
