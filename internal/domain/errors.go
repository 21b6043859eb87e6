package domain

import "errors"

// Failure classes surfaced by Provisioner.Get. Exactly one of these (or
// success) results from each call; callers classify with errors.Is.
var (
	// ErrMalformedReference indicates a precondition violation knowable
	// without touching the filesystem or network: nil reference, empty
	// remote name, empty host, bad dirname. Never retried.
	ErrMalformedReference = errors.New("malformed repository reference")

	// ErrPathConvention indicates the target path does not end with the
	// reserved projects-directory segment.
	ErrPathConvention = errors.New(`path must end with "projects/"`)

	// ErrUnknownTransport indicates a catalog transport name outside the
	// closed https/file/ssh set.
	ErrUnknownTransport = errors.New("unknown transport")

	// ErrAlreadyExists indicates the target directory holds content that
	// is not a checkout of the expected remote. Requires a caller decision
	// (overwrite or manual resolution); never auto-resolved.
	ErrAlreadyExists = errors.New("target directory exists but is not a checkout of the expected remote")

	// ErrCloneFailed indicates a backend-reported operational failure
	// while creating a fresh checkout.
	ErrCloneFailed = errors.New("clone failed")

	// ErrUpdateFailed indicates a backend-reported operational failure
	// while bringing an existing checkout up to date.
	ErrUpdateFailed = errors.New("update failed")

	// ErrAuthRequired is the backend signal that an operation needs
	// interactive authentication. The Provisioner translates it into a
	// credential prompt or into ErrAuthFailed; it never escapes Get.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthFailed indicates the credential prompt was absent, declined,
	// returned empty credentials, or the backend rejected them.
	ErrAuthFailed = errors.New("authentication failed")
)
