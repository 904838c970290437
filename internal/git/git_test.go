package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLocalRepo creates a bare-minimum repository with one commit to clone from.
func newLocalRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Course\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestEnsureClonesAndPulls(t *testing.T) {
	src := newLocalRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	ctx := context.Background()

	require.NoError(t, Ensure(ctx, src, "", dst))
	_, err := os.Stat(filepath.Join(dst, "README.md"))
	assert.NoError(t, err)

	// Second run takes the pull path and is a no-op
	require.NoError(t, Ensure(ctx, src, "", dst))
}

func TestEnsureBadURL(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "checkout")
	err := Ensure(context.Background(), filepath.Join(t.TempDir(), "missing"), "", dst)
	assert.Error(t, err)
}
