package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kshvakov/docprep/internal/config"
	"github.com/kshvakov/docprep/internal/git"
	"github.com/kshvakov/docprep/internal/linkcheck"
	"github.com/kshvakov/docprep/internal/logfields"
	"github.com/kshvakov/docprep/internal/metrics"
	"github.com/kshvakov/docprep/internal/server"
	"github.com/kshvakov/docprep/internal/site"
	"github.com/kshvakov/docprep/internal/state"
	"github.com/kshvakov/docprep/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docprep.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory override"`
	} `cmd:"" help:"Prepare the course tree for publishing"`

	Watch struct {
		QuietWindow time.Duration `help:"Rebuild after the sources stay quiet this long" default:"500ms"`
		MaxDelay    time.Duration `help:"Rebuild at most this long after the first change" default:"5s"`
		Every       time.Duration `help:"Also rebuild on a fixed interval (0 disables)"`
	} `cmd:"" help:"Rebuild the site whenever the course sources change"`

	Serve struct {
		Port  int  `short:"p" help:"Port to listen on" default:"8000"`
		Build bool `help:"Run a build before serving" default:"true"`
		Watch bool `short:"w" help:"Rebuild on source changes while serving"`
	} `cmd:"" help:"Serve the prepared site for local preview"`

	Check struct {
		Build bool `help:"Run a build before checking" default:"true"`
	} `cmd:"" help:"Verify internal links in the prepared site"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "build":
		if CLI.Build.Output != "" {
			cfg.Output.Directory = CLI.Build.Output
		}
		if err := runBuild(ctx, cfg, nil); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(ctx, cfg, nil); err != nil && ctx.Err() == nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	case "serve":
		if err := runServe(ctx, cfg); err != nil && ctx.Err() == nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "check":
		if CLI.Check.Build {
			if err := runBuild(ctx, cfg, nil); err != nil {
				slog.Error("Build failed", logfields.Error(err))
				os.Exit(1)
			}
		}
		if err := runCheck(cfg); err != nil {
			slog.Error("Check failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

// runBuild fetches the sources if configured, prepares the site, and records
// the build in the state store.
func runBuild(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) error {
	if err := ensureSources(ctx, cfg); err != nil {
		return err
	}

	report, err := site.New(cfg).Run(ctx)
	if rec != nil {
		var pages, extras int
		var dur time.Duration
		if report != nil {
			pages, extras, dur = report.Pages, report.ExtraFiles, report.Duration()
		}
		rec.ObserveBuild(dur, pages, extras, err)
	}
	if err != nil {
		return err
	}

	slog.Info("Build complete",
		logfields.BuildID(report.BuildID),
		logfields.Count(report.Pages),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))

	if cfg.StateDB != "" {
		store, err := state.Open(cfg.StateDB)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer store.Close()
		if err := store.RecordBuild(ctx, state.BuildRecord{
			ID:         report.BuildID,
			Started:    report.Started,
			Finished:   report.Finished,
			Pages:      report.Pages,
			ExtraFiles: report.ExtraFiles,
		}); err != nil {
			return fmt.Errorf("record build: %w", err)
		}
	}
	return nil
}

// ensureSources clones or updates the course repository when a remote source
// is configured. Without one the repo root is used as-is.
func ensureSources(ctx context.Context, cfg *config.Config) error {
	if cfg.Source == nil || cfg.Source.URL == "" {
		return nil
	}
	return git.Ensure(ctx, cfg.Source.URL, cfg.Source.Branch, cfg.RepoRoot)
}

func runWatch(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) error {
	var store *state.Store
	if cfg.StateDB != "" {
		var err error
		if store, err = state.Open(cfg.StateDB); err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer store.Close()
	}

	// Build once up front so the watcher starts from a published tree
	if err := runBuild(ctx, cfg, rec); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}
	if store != nil {
		if _, err := sourcesChanged(ctx, store, watchRoots(cfg)); err != nil {
			slog.Warn("Failed to fingerprint sources", logfields.Error(err))
		}
	}

	w, err := watch.New(watchRoots(cfg), watch.Options{
		QuietWindow: CLI.Watch.QuietWindow,
		MaxDelay:    CLI.Watch.MaxDelay,
		Every:       CLI.Watch.Every,
	}, func(ctx context.Context) error {
		if store != nil {
			changed, err := sourcesChanged(ctx, store, watchRoots(cfg))
			if err != nil {
				slog.Warn("Failed to fingerprint sources", logfields.Error(err))
			} else if !changed {
				slog.Debug("Sources unchanged, skipping rebuild")
				return nil
			}
		}
		return runBuild(ctx, cfg, rec)
	})
	if err != nil {
		return err
	}

	slog.Info("Watching for changes", logfields.Path(cfg.BookDir()))
	return w.Run(ctx)
}

// sourcesChanged updates the stored fingerprint of every markdown source and
// reports whether any of them carries new content. File system events that
// only touch metadata produce no fingerprint change and no rebuild.
func sourcesChanged(ctx context.Context, store *state.Store, roots []string) (bool, error) {
	changed := false
	for _, root := range roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == root && os.IsNotExist(err) {
					return filepath.SkipAll
				}
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && p != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			c, err := store.Changed(ctx, p, data)
			if err != nil {
				return err
			}
			changed = changed || c
			return nil
		})
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	rec := metrics.NewRecorder()

	if CLI.Serve.Build {
		if err := runBuild(ctx, cfg, rec); err != nil {
			return err
		}
	}

	srv := server.New(cfg.OutputDir(), cfg.Site.BasePath, rec)
	if err := srv.Start(CLI.Serve.Port); err != nil {
		return err
	}

	if CLI.Serve.Watch {
		w, err := watch.New(watchRoots(cfg), watch.Options{}, func(ctx context.Context) error {
			return runBuild(ctx, cfg, rec)
		})
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Watcher stopped", logfields.Error(err))
			}
		}()
	}

	return srv.Run(ctx)
}

func runCheck(cfg *config.Config) error {
	issues, err := linkcheck.Check(cfg.OutputDir())
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		slog.Info("All internal links resolve")
		return nil
	}
	for _, issue := range issues {
		slog.Error("Broken link",
			logfields.Page(issue.File),
			logfields.URL(issue.Target))
	}
	return fmt.Errorf("%d broken links", len(issues))
}

// watchRoots lists the source trees a rebuild depends on.
func watchRoots(cfg *config.Config) []string {
	roots := []string{cfg.BookDir()}
	for _, loc := range cfg.Locales() {
		if loc.Translated() {
			roots = append(roots, loc.BookDir(cfg.RepoRoot))
		}
	}
	return roots
}
