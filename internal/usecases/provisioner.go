// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubicas/repoget/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// ProvisionerOptions tunes Provisioner behavior beyond its collaborators.
type ProvisionerOptions struct {
	// Overwrite discards a conflicting target directory and clones fresh
	// instead of failing with the already-exists condition. Off by
	// default; a conflicting checkout is a hard failure.
	Overwrite bool
}

// Provisioner implements domain.Provisioner: the clone-or-update decision and
// execution for one Reference at a time. It owns no repository state of its
// own, only its I/O streams, credential prompt and the backend handle.
type Provisioner struct {
	backend domain.Backend
	out     io.Writer
	in      io.Reader
	prompt  domain.CredentialPrompt
	status  domain.StatusWriter
	logger  Logger
	opts    ProvisionerOptions

	// lastCommitUser records whether the most recently processed
	// Reference carried a committer identity.
	lastCommitUser bool

	// creds caches credentials prompted during the current Get call so one
	// remote demands at most one prompt per call. Reset on every Get.
	creds *domain.Credentials
}

// NewProvisioner creates a Provisioner. out receives status/progress text, in
// is handed to the credential prompt together with out. A nil prompt disables
// interactive authentication: operations that demand credentials fail with
// the authentication condition instead of prompting.
func NewProvisioner(
	backend domain.Backend,
	out io.Writer,
	in io.Reader,
	prompt domain.CredentialPrompt,
	status domain.StatusWriter,
	log Logger,
	opts ProvisionerOptions,
) *Provisioner {
	return &Provisioner{
		backend: backend,
		out:     out,
		in:      in,
		prompt:  prompt,
		status:  status,
		logger:  log,
		opts:    opts,
	}
}

// Get guarantees that the checkout described by ref exists under path and is
// up to date, creating it when absent and updating it (including nested
// sub-repositories) when present. See the domain failure classes for the
// error contract; validation failures are reported before any backend call.
func (p *Provisioner) Get(
	ctx context.Context,
	ref domain.Reference,
	path string,
	dirname string,
) (*domain.GetResult, error) {
	tref, err := p.validate(ref, path, dirname)
	if err != nil {
		return nil, err
	}
	p.lastCommitUser = tref.HasCommitUser()
	p.creds = nil

	dir := filepath.Join(path, checkoutDir(*tref, dirname))
	url := tref.URL()

	p.logger.Debug(ctx, "resolved provisioning target", map[string]interface{}{
		"remote": tref.RemoteName,
		"url":    url,
		"dir":    dir,
	})

	var result *domain.GetResult
	switch {
	case dirMissingOrEmpty(dir):
		result, err = p.clone(ctx, *tref, url, dir)
	default:
		result, err = p.updateOrConflict(ctx, *tref, url, dir)
	}
	if err != nil {
		return nil, err
	}

	// Identity configuration is a side effect after a successful
	// clone/update; failure does not roll the checkout back.
	if tref.HasCommitUser() {
		if err := p.backend.SetIdentity(ctx, dir, tref.CommitUser, tref.CommitEmail); err != nil {
			warning := fmt.Sprintf("could not configure committer identity %q: %v", tref.CommitUser, err)
			result.Warnings = append(result.Warnings, warning)
			p.logger.Warn(ctx, "identity configuration failed", map[string]interface{}{
				"remote": tref.RemoteName,
				"dir":    dir,
				"user":   tref.CommitUser,
			})
		}
	}

	return result, nil
}

// HasCommitUser reports whether the most recently processed Reference carried
// a committer identity. Pure query for diagnostics and tests.
func (p *Provisioner) HasCommitUser() bool {
	return p.lastCommitUser
}

// validate enforces the Get preconditions. All violations are malformed-input
// failures, reported before any backend call.
func (p *Provisioner) validate(ref domain.Reference, path, dirname string) (*domain.TransportRef, error) {
	if ref == nil {
		return nil, fmt.Errorf("%w: reference is nil", domain.ErrMalformedReference)
	}
	if strings.TrimSpace(ref.Remote()) == "" {
		return nil, fmt.Errorf("%w: remote name is empty", domain.ErrMalformedReference)
	}
	if !domain.ValidProjectsPath(path) {
		return nil, fmt.Errorf("%w: got %q", domain.ErrPathConvention, path)
	}
	if dirname != "" {
		if strings.TrimSpace(dirname) == "" || dirname == "." || dirname == ".." ||
			strings.ContainsAny(dirname, `/\`) {
			return nil, fmt.Errorf("%w: invalid dirname %q", domain.ErrMalformedReference, dirname)
		}
	}

	tref, ok := transportRef(ref)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported reference type %T", domain.ErrMalformedReference, ref)
	}
	if strings.TrimSpace(tref.Host) == "" {
		return nil, fmt.Errorf("%w: host is empty", domain.ErrMalformedReference)
	}
	return tref, nil
}

// transportRef unwraps the concrete transport variant behind a Reference.
func transportRef(ref domain.Reference) (*domain.TransportRef, bool) {
	switch r := ref.(type) {
	case domain.TransportRef:
		return &r, true
	case *domain.TransportRef:
		return r, true
	default:
		return nil, false
	}
}

// checkoutDir resolves the directory name for the checkout: the explicit
// dirname when supplied, otherwise the default derived from the remote name.
func checkoutDir(ref domain.TransportRef, dirname string) string {
	if dirname != "" {
		return dirname
	}
	return ref.DefaultDir()
}

// dirMissingOrEmpty reports whether dir is absent or holds no entries.
func dirMissingOrEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	return len(entries) == 0
}

// clone creates a fresh checkout at dir and moves it to the desired state.
func (p *Provisioner) clone(ctx context.Context, ref domain.TransportRef, url, dir string) (*domain.GetResult, error) {
	p.logger.Info(ctx, "cloning repository", map[string]interface{}{
		"remote": ref.RemoteName,
		"url":    url,
		"dir":    dir,
	})
	if p.status != nil {
		p.status.Cloning(ref.RemoteName, dir)
	}

	err := p.withCredentials(ctx, url, func(creds *domain.Credentials) error {
		return p.backend.Clone(ctx, url, dir, creds)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s into %s: %w", domain.ErrCloneFailed, url, dir, err)
	}

	// A fresh clone sits on the remote's default branch; move to the
	// requested branch and, when pinned, to the requested commit. The clone
	// initialized sub-repositories at the default branch's pins, so moving
	// the tree requires realigning them with the new revision.
	if ref.Branch != "" || ref.CommitSHA != "" {
		if ref.Branch != "" {
			if err := p.backend.Checkout(ctx, dir, ref.Branch); err != nil {
				return nil, fmt.Errorf("%w: checkout %q in %s: %w", domain.ErrCloneFailed, ref.Branch, dir, err)
			}
		}
		if ref.CommitSHA != "" {
			if err := p.backend.Checkout(ctx, dir, ref.CommitSHA); err != nil {
				return nil, fmt.Errorf("%w: checkout %q in %s: %w", domain.ErrCloneFailed, ref.CommitSHA, dir, err)
			}
		}

		err := p.withCredentials(ctx, url, func(creds *domain.Credentials) error {
			return p.backend.SyncSubmodules(ctx, dir, creds)
		})
		if err != nil {
			if errors.Is(err, domain.ErrAuthFailed) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: submodule sync in %s: %w", domain.ErrCloneFailed, dir, err)
		}
	}

	return &domain.GetResult{
		Remote: ref.RemoteName,
		Dir:    dir,
		Action: domain.ActionCloned,
	}, nil
}

// updateOrConflict decides between updating an existing checkout and failing
// with the already-exists condition when dir does not belong to the expected
// remote.
func (p *Provisioner) updateOrConflict(ctx context.Context, ref domain.TransportRef, url, dir string) (*domain.GetResult, error) {
	existing, err := p.backend.RemoteURL(ctx, dir)
	if err != nil || existing != url {
		if !p.opts.Overwrite {
			return nil, fmt.Errorf("%w: %s (expected remote %s)", domain.ErrAlreadyExists, dir, url)
		}
		p.logger.Warn(ctx, "overwriting conflicting checkout", map[string]interface{}{
			"dir":    dir,
			"remote": ref.RemoteName,
		})
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("%w: removing %s: %w", domain.ErrCloneFailed, dir, err)
		}
		return p.clone(ctx, ref, url, dir)
	}

	return p.update(ctx, ref, url, dir)
}

// update fetches the latest remote state, checks out the desired ref and
// synchronizes nested sub-repositories. Update semantics favor
// reproducibility over local edit retention.
func (p *Provisioner) update(ctx context.Context, ref domain.TransportRef, url, dir string) (*domain.GetResult, error) {
	p.logger.Info(ctx, "updating repository", map[string]interface{}{
		"remote": ref.RemoteName,
		"dir":    dir,
	})
	if p.status != nil {
		p.status.Updating(ref.RemoteName, dir)
	}

	err := p.withCredentials(ctx, url, func(creds *domain.Credentials) error {
		return p.backend.Fetch(ctx, dir, creds)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetch %s in %s: %w", domain.ErrUpdateFailed, url, dir, err)
	}

	// CommitSHA wins over Branch once the branch history is fetched.
	target := ref.CommitSHA
	if target == "" {
		target = ref.Branch
	}
	if err := p.backend.Checkout(ctx, dir, target); err != nil {
		return nil, fmt.Errorf("%w: checkout %q in %s: %w", domain.ErrUpdateFailed, target, dir, err)
	}

	err = p.withCredentials(ctx, url, func(creds *domain.Credentials) error {
		return p.backend.SyncSubmodules(ctx, dir, creds)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: submodule sync in %s: %w", domain.ErrUpdateFailed, dir, err)
	}

	return &domain.GetResult{
		Remote: ref.RemoteName,
		Dir:    dir,
		Action: domain.ActionUpdated,
	}, nil
}

// withCredentials runs op with the credentials prompted earlier in the same
// Get call, or without credentials when none were. When the backend signals
// that authentication is required, credentials are obtained through the prompt
// exactly once per Get call and op is retried; a demand after that maps to the
// authentication-failed condition, as does every other failure on the
// credential path.
func (p *Provisioner) withCredentials(ctx context.Context, url string, op func(*domain.Credentials) error) error {
	err := op(p.creds)
	if err == nil || !errors.Is(err, domain.ErrAuthRequired) {
		return err
	}
	if p.creds != nil {
		return fmt.Errorf("%w: backend rejected credentials for %s", domain.ErrAuthFailed, url)
	}

	if p.prompt == nil {
		return fmt.Errorf("%w: authentication required for %s but no prompt available", domain.ErrAuthFailed, url)
	}

	creds, perr := p.prompt(p.out, p.in, url)
	if perr != nil {
		return fmt.Errorf("%w: prompt for %s: %w", domain.ErrAuthFailed, url, perr)
	}
	if creds.Username == "" && creds.Password == "" {
		return fmt.Errorf("%w: empty credentials for %s", domain.ErrAuthFailed, url)
	}
	p.creds = &creds

	p.logger.Debug(ctx, "retrying operation with credentials", map[string]interface{}{
		"url":  url,
		"user": creds.Username,
	})

	if err := op(p.creds); err != nil {
		if errors.Is(err, domain.ErrAuthRequired) || errors.Is(err, domain.ErrAuthFailed) {
			return fmt.Errorf("%w: backend rejected credentials for %s", domain.ErrAuthFailed, url)
		}
		return err
	}
	return nil
}
