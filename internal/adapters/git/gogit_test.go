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

// setupSourceRepo creates a local repository with one commit to clone from.
// Returns the repository path and the commit SHA.
func setupSourceRepo(t *testing.T) (string, string) {
	t.Helper()

	src := filepath.Join(t.TempDir(), "source")
	repo, err := gogit.PlainInit(src, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(src, "README"), []byte("hello\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)

	hash, err := wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return src, hash.String()
}

// commitFile writes content to name in the repository at dir and commits it.
// Returns the new commit SHA.
func commitFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("update "+name, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestGoGitBackend_CloneAndInspect(t *testing.T) {
	src, sha := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))
	assert.DirExists(t, filepath.Join(dst, ".git"))
	assert.FileExists(t, filepath.Join(dst, "README"))

	url, err := b.RemoteURL(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, src, url)

	require.NoError(t, b.Checkout(ctx, dst, sha))
}

func TestGoGitBackend_FetchUpToDate(t *testing.T) {
	src, _ := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))
	assert.NoError(t, b.Fetch(ctx, dst, nil), "an up-to-date fetch is not an error")
}

func TestGoGitBackend_CheckoutDefaultWithoutOriginHead(t *testing.T) {
	src, _ := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))

	// Dirty the working tree; the default checkout discards local edits.
	require.NoError(t, os.WriteFile(filepath.Join(dst, "README"), []byte("dirty\n"), 0o644))
	require.NoError(t, b.Checkout(ctx, dst, ""))

	data, err := os.ReadFile(filepath.Join(dst, "README"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestGoGitBackend_CheckoutBranchAdvancesToFetchedTip(t *testing.T) {
	src, _ := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))

	// Advance the source branch after the clone; fetch plus branch checkout
	// must land the working tree on the new tip, not the stale local one.
	commitFile(t, src, "README", "updated\n")
	require.NoError(t, b.Fetch(ctx, dst, nil))
	require.NoError(t, b.Checkout(ctx, dst, "master"))

	data, err := os.ReadFile(filepath.Join(dst, "README"))
	require.NoError(t, err)
	assert.Equal(t, "updated\n", string(data))
}

func TestGoGitBackend_SetIdentity(t *testing.T) {
	src, _ := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))
	require.NoError(t, b.SetIdentity(ctx, dst, "Kees Kubicas", "kees@example.com"))

	repo, err := gogit.PlainOpen(dst)
	require.NoError(t, err)
	cfg, err := repo.Config()
	require.NoError(t, err)
	assert.Equal(t, "Kees Kubicas", cfg.User.Name)
	assert.Equal(t, "kees@example.com", cfg.User.Email)
}

func TestGoGitBackend_SyncSubmodulesWithoutSubmodules(t *testing.T) {
	src, _ := setupSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})
	ctx := context.Background()

	require.NoError(t, b.Clone(ctx, src, dst, nil))
	assert.NoError(t, b.SyncSubmodules(ctx, dst, nil))
}

func TestGoGitBackend_RemoteURLNotARepository(t *testing.T) {
	b := NewGoGitBackend(&testLogger{}, BackendOptions{})

	_, err := b.RemoteURL(context.Background(), t.TempDir())

	require.Error(t, err)
}
