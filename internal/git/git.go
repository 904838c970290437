// Package git fetches the course repository when docprep is pointed at a
// remote source instead of a local checkout.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kshvakov/docprep/internal/logfields"
)

// Ensure makes dir a checkout of url at branch: a fresh clone when dir does
// not exist yet, a pull otherwise. Only public repositories are supported.
func Ensure(ctx context.Context, url, branch, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return pull(ctx, branch, dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	slog.Info("Cloning course repository", logfields.URL(url), logfields.Path(dir))

	opts := &gogit.CloneOptions{URL: url}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if _, err := gogit.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

func pull(ctx context.Context, branch, dir string) error {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	opts := &gogit.PullOptions{}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	err = wt.PullContext(ctx, opts)
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		slog.Debug("Course repository already up to date", logfields.Path(dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", dir, err)
	}

	slog.Info("Course repository updated", logfields.Path(dir))
	return nil
}
