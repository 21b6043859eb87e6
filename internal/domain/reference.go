// Package domain defines the core business entities and interfaces for repoget.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"os"
	"path"
	"strings"
)

// Transport identifies how a remote repository is reached. The set of
// transports is closed; the Provisioner dispatches on it when building the
// remote URL and when selecting an authentication strategy.
type Transport int

const (
	// TransportHTTPS reaches the remote over HTTPS with interactive
	// username/password authentication on demand.
	TransportHTTPS Transport = iota

	// TransportFile reaches the remote on the local filesystem, no
	// authentication.
	TransportFile

	// TransportSSH reaches the remote over SSH using key or agent
	// authentication.
	TransportSSH
)

// String returns the canonical name of the transport as used in catalog files.
func (t Transport) String() string {
	switch t {
	case TransportHTTPS:
		return "https"
	case TransportFile:
		return "file"
	case TransportSSH:
		return "ssh"
	default:
		return "unknown"
	}
}

// ParseTransport converts a catalog transport name into a Transport.
// Returns ErrUnknownTransport for anything outside the closed set.
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "https":
		return TransportHTTPS, nil
	case "file":
		return TransportFile, nil
	case "ssh":
		return TransportSSH, nil
	default:
		return 0, ErrUnknownTransport
	}
}

// Defaults applied by the Provisioner when the corresponding Reference field
// is left empty.
const (
	// DefaultExtension is the archive suffix appended to the remote name
	// when the Reference does not override it.
	DefaultExtension = ".git"

	// DefaultSSHUser is the SSH user for TransportSSH references that do
	// not carry one.
	DefaultSSHUser = "git"
)

// ProjectsDirName is the reserved trailing segment of the projects directory.
// Get rejects any target path that does not end with this segment; the check
// is structural and never touches the filesystem.
const ProjectsDirName = "projects"

// Reference describes a desired repository state: which remote, checked out
// under which local name. A Reference describes intent and is never mutated
// after construction.
type Reference interface {
	// Remote is the canonical remote identity, e.g. "libgit2/libgit2".
	Remote() string

	// Local is the directory name to check out into. May be empty; the
	// Provisioner derives a default from the remote name.
	Local() string
}

// Ref is the transport-agnostic base shared by all reference variants.
type Ref struct {
	// RemoteName is the canonical remote identity, e.g. "libgit2/libgit2".
	RemoteName string

	// LocalName is the directory name to check out into,
	// e.g. "libgit2" for "libgit2/libgit2".
	LocalName string
}

// Remote returns the canonical remote identity.
func (r Ref) Remote() string { return r.RemoteName }

// Local returns the local directory name.
func (r Ref) Local() string { return r.LocalName }

// DefaultDir returns the checkout directory derived from the remote name when
// no local name or dirname is supplied: the final path component of the
// remote name.
func (r Ref) DefaultDir() string {
	if r.LocalName != "" {
		return r.LocalName
	}
	return path.Base(r.RemoteName)
}

// TransportRef is a Reference tied to a concrete transport. The Kind tag
// selects the variant; SSHUser is meaningful only for TransportSSH.
//
// Construction performs no cross-field validation. Invalid references can be
// built and inspected for catalog diagnostics; the Provisioner validates at
// call time.
type TransportRef struct {
	Ref

	// Kind selects the transport variant.
	Kind Transport

	// Host is the network host or filesystem root for the remote,
	// e.g. "github.com" or "../mirror".
	Host string

	// Subdir is the path prefix under Host where the remote lives,
	// e.g. "libgit2/".
	Subdir string

	// Extension overrides the remote archive suffix. Empty means
	// DefaultExtension.
	Extension string

	// Branch is the branch to update to. Empty means the remote's default
	// branch.
	Branch string

	// CommitSHA pins the checkout to a commit. When both Branch and
	// CommitSHA are set, CommitSHA wins after Branch history is fetched.
	CommitSHA string

	// CommitUser is the committer identity name to configure in the local
	// checkout. Empty means no identity override.
	CommitUser string

	// CommitEmail is the committer e-mail configured alongside CommitUser.
	CommitEmail string

	// SSHUser is the SSH user name for TransportSSH. Empty means
	// DefaultSSHUser.
	SSHUser string
}

// HasCommitUser reports whether the reference carries a committer identity.
func (r TransportRef) HasCommitUser() bool { return r.CommitUser != "" }

// ArchiveName returns the remote archive file name: the local directory name
// plus the archive extension.
func (r TransportRef) ArchiveName() string {
	ext := r.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return r.DefaultDir() + ext
}

// URL builds the outbound remote URL for the reference's transport.
//
//	https: https://{host}/{subdir}{archive}
//	file:  {host}/{subdir}{archive}
//	ssh:   {user}@{host}:{subdir}{archive}
func (r TransportRef) URL() string {
	archive := r.Subdir + r.ArchiveName()
	switch r.Kind {
	case TransportFile:
		return strings.TrimSuffix(r.Host, "/") + "/" + archive
	case TransportSSH:
		user := r.SSHUser
		if user == "" {
			user = DefaultSSHUser
		}
		return user + "@" + r.Host + ":" + archive
	default:
		return "https://" + r.Host + "/" + archive
	}
}

// ValidProjectsPath reports whether path follows the projects-directory
// convention: non-empty and ending in a "projects" segment followed by a
// trailing separator. Both forward slashes and the OS separator are accepted.
func ValidProjectsPath(p string) bool {
	if p == "" {
		return false
	}
	sep := string(os.PathSeparator)
	for _, suffix := range []string{"/" + ProjectsDirName + "/", sep + ProjectsDirName + sep} {
		if strings.HasSuffix(p, suffix) {
			return true
		}
		// A bare "projects/" root is also within convention.
		if p == ProjectsDirName+suffix[len(suffix)-1:] {
			return true
		}
	}
	return false
}
