package domain

import (
	"context"
	"io"
)

// Credentials carries a username/password pair obtained from a
// CredentialPrompt.
type Credentials struct {
	Username string
	Password string
}

// CredentialPrompt obtains credentials for the given URL when the backend
// demands interactive authentication. It writes its prompt to out and reads
// the response from in, synchronously. A nil CredentialPrompt on the
// Provisioner disables interactive authentication entirely.
type CredentialPrompt func(out io.Writer, in io.Reader, url string) (Credentials, error)

// Backend is the VCS collaborator the Provisioner delegates actual repository
// operations to. All operations are idempotent when re-run against an
// already-correct state. Operations that touch the network accept optional
// credentials and report a missing-authentication condition by returning an
// error wrapping ErrAuthRequired.
type Backend interface {
	// Clone creates a fresh checkout of url in dir, including recursive
	// initialization of nested sub-repositories.
	Clone(ctx context.Context, url, dir string, creds *Credentials) error

	// Fetch brings the checkout's knowledge of the remote up to date.
	Fetch(ctx context.Context, dir string, creds *Credentials) error

	// Checkout moves the working tree to ref: a commit SHA, a branch name,
	// or the remote's default branch when ref is empty. Local
	// modifications are not preserved.
	Checkout(ctx context.Context, dir, ref string) error

	// SyncSubmodules recursively initializes and updates nested
	// sub-repositories to the versions referenced by the parent checkout.
	SyncSubmodules(ctx context.Context, dir string, creds *Credentials) error

	// SetIdentity configures the committer identity in the checkout.
	SetIdentity(ctx context.Context, dir, name, email string) error

	// RemoteURL reports the checkout's configured origin URL, or an error
	// when dir is not a recognizable checkout. Never mutates.
	RemoteURL(ctx context.Context, dir string) (string, error)
}

// Action reports what Get did to the target directory.
type Action string

const (
	// ActionCloned means a fresh checkout was created.
	ActionCloned Action = "cloned"

	// ActionUpdated means an existing checkout was brought up to date.
	ActionUpdated Action = "updated"
)

// GetResult is the outcome of a successful Get call. Warnings carry non-fatal
// conditions (identity configuration failure) attached to an otherwise
// successful provisioning.
type GetResult struct {
	Remote   string
	Dir      string
	Action   Action
	Warnings []string
}

// Provisioner performs the clone-or-update decision for one Reference against
// a local directory. One instance may service many Get calls; it is not safe
// for concurrent use, since its I/O streams are shared across calls.
type Provisioner interface {
	// Get guarantees the checkout for ref exists under path and is up to
	// date. path must end with the projects-directory segment; dirname
	// overrides the checkout directory name, empty means a default derived
	// from the remote name.
	Get(ctx context.Context, ref Reference, path, dirname string) (*GetResult, error)

	// HasCommitUser reports whether the most recently processed Reference
	// carried a committer identity. Diagnostics only.
	HasCommitUser() bool
}

// StatusWriter receives provisioning progress text for the human watching the
// batch run.
type StatusWriter interface {
	Cloning(remote, dir string)
	Updating(remote, dir string)
	Done(result *GetResult)
	Warning(msg string)
	Failed(remote string, err error)
}

// Orchestrator drives the Provisioner over the catalog entries selected by
// the process arguments, strictly sequentially in catalog order.
type Orchestrator interface {
	Run(ctx context.Context, catalog []Descriptor, args []string) error
}
