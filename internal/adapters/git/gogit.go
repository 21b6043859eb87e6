// Package git provides the VCS backend adapter for repoget.
// This package implements the domain.Backend interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/kubicas/repoget/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// BackendOptions configures non-interactive authentication material for the
// backend.
type BackendOptions struct {
	// SSHKeyPEM is an optional private key used for SSH transports. When
	// absent, the SSH agent is tried and finally an interactive password.
	SSHKeyPEM []byte

	// SSHKeyPassword decrypts SSHKeyPEM when the key is encrypted.
	SSHKeyPassword string
}

// GoGitBackend implements domain.Backend using go-git/v5. All operations are
// idempotent when re-run against an already-correct state.
type GoGitBackend struct {
	logger Logger
	opts   BackendOptions
}

// NewGoGitBackend creates a GoGitBackend.
func NewGoGitBackend(log Logger, opts BackendOptions) *GoGitBackend {
	return &GoGitBackend{logger: log, opts: opts}
}

// Clone creates a fresh checkout of url in dir, recursively initializing any
// nested sub-repositories declared by the cloned tree.
func (b *GoGitBackend) Clone(ctx context.Context, url, dir string, creds *domain.Credentials) error {
	auth, err := b.authFor(url, creds)
	if err != nil {
		return err
	}

	b.logger.Debug(ctx, "cloning", map[string]interface{}{
		"url": url,
		"dir": dir,
	})

	_, err = gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:               url,
		Auth:              auth,
		RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
	})
	return classify(err)
}

// Fetch brings the checkout's knowledge of its origin up to date.
func (b *GoGitBackend) Fetch(ctx context.Context, dir string, creds *domain.Credentials) error {
	repo, url, err := b.open(ctx, dir)
	if err != nil {
		return err
	}
	auth, err := b.authFor(url, creds)
	if err != nil {
		return err
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: gogit.DefaultRemoteName,
		Auth:       auth,
		Force:      true,
		Tags:       gogit.AllTags,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return classify(err)
}

// Checkout moves the working tree to ref: a 40-character commit SHA, a branch
// name, or the origin's default branch when ref is empty. Local modifications
// are discarded.
func (b *GoGitBackend) Checkout(ctx context.Context, dir, ref string) error {
	repo, _, err := b.open(ctx, dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree of %s: %w", dir, err)
	}

	switch {
	case ref == "":
		return b.checkoutDefault(ctx, repo, wt)
	case plumbing.IsHash(ref):
		return wt.Checkout(&gogit.CheckoutOptions{
			Hash:  plumbing.NewHash(ref),
			Force: true,
		})
	default:
		return b.checkoutBranch(repo, wt, ref)
	}
}

// checkoutBranch checks out branch at the fetched origin tip, creating the
// local branch when it does not exist yet and moving it forward when it does.
// A branch with no origin tracking ref is checked out as it stands locally.
func (b *GoGitBackend) checkoutBranch(repo *gogit.Repository, wt *gogit.Worktree, branch string) error {
	local := plumbing.NewBranchReferenceName(branch)

	remote, err := repo.Reference(plumbing.NewRemoteReferenceName(gogit.DefaultRemoteName, branch), true)
	if err != nil {
		return wt.Checkout(&gogit.CheckoutOptions{Branch: local, Force: true})
	}

	if _, err := repo.Reference(local, false); err != nil {
		return wt.Checkout(&gogit.CheckoutOptions{
			Branch: local,
			Hash:   remote.Hash(),
			Create: true,
			Force:  true,
		})
	}

	// Fetch only advances the origin tracking ref; the local branch has to
	// be moved to the fetched tip before checking it out, or an existing
	// checkout stays at the stale pre-fetch state.
	if err := repo.Storer.SetReference(plumbing.NewHashReference(local, remote.Hash())); err != nil {
		return fmt.Errorf("branch %q: %w", branch, err)
	}
	return wt.Checkout(&gogit.CheckoutOptions{Branch: local, Force: true})
}

// checkoutDefault resets the working tree to the origin's default branch tip,
// falling back to the current HEAD when origin/HEAD is not recorded locally.
func (b *GoGitBackend) checkoutDefault(ctx context.Context, repo *gogit.Repository, wt *gogit.Worktree) error {
	head, err := repo.Reference(plumbing.NewRemoteHEADReferenceName(gogit.DefaultRemoteName), true)
	if err != nil {
		b.logger.Debug(ctx, "origin HEAD not recorded, keeping current branch", map[string]interface{}{
			"error": err.Error(),
		})
		return wt.Reset(&gogit.ResetOptions{Mode: gogit.HardReset})
	}
	return wt.Checkout(&gogit.CheckoutOptions{
		Hash:  head.Hash(),
		Force: true,
	})
}

// SyncSubmodules recursively initializes and updates nested sub-repositories
// to the versions referenced by the parent checkout.
func (b *GoGitBackend) SyncSubmodules(ctx context.Context, dir string, creds *domain.Credentials) error {
	repo, url, err := b.open(ctx, dir)
	if err != nil {
		return err
	}
	auth, err := b.authFor(url, creds)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree of %s: %w", dir, err)
	}

	subs, err := wt.Submodules()
	if err != nil {
		return fmt.Errorf("submodules of %s: %w", dir, err)
	}
	for _, sub := range subs {
		err := sub.UpdateContext(ctx, &gogit.SubmoduleUpdateOptions{
			Init:              true,
			Auth:              auth,
			RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
		})
		if err != nil {
			return classify(fmt.Errorf("submodule %s: %w", sub.Config().Name, err))
		}
	}
	return nil
}

// SetIdentity configures the committer identity in the checkout's local
// configuration.
func (b *GoGitBackend) SetIdentity(ctx context.Context, dir, name, email string) error {
	repo, _, err := b.open(ctx, dir)
	if err != nil {
		return err
	}
	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("config of %s: %w", dir, err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config of %s: %w", dir, err)
	}
	b.logger.Debug(ctx, "configured committer identity", map[string]interface{}{
		"dir":  dir,
		"user": name,
	})
	return nil
}

// RemoteURL reports the checkout's configured origin URL. Never mutates.
func (b *GoGitBackend) RemoteURL(ctx context.Context, dir string) (string, error) {
	_, url, err := b.open(ctx, dir)
	return url, err
}

// open opens the repository at dir and resolves its origin URL.
func (b *GoGitBackend) open(_ context.Context, dir string) (*gogit.Repository, string, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dir, err)
	}
	remote, err := repo.Remote(gogit.DefaultRemoteName)
	if err != nil {
		return nil, "", fmt.Errorf("origin remote of %s: %w", dir, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, "", fmt.Errorf("origin remote of %s has no URLs configured", dir)
	}
	return repo, urls[0], nil
}

// classify maps go-git transport errors onto the domain authentication
// signals so the Provisioner can route them to the credential prompt.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	default:
		return err
	}
}
