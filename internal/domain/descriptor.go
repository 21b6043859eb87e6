package domain

// Descriptor is a flat catalog entry naming one known repository. Descriptors
// are constructed at process start (from the compiled-in catalog or a catalog
// file) and read-only thereafter. The Orchestrator turns a Descriptor into the
// matching TransportRef at dispatch time.
type Descriptor struct {
	// LocalName is the directory name the repository is checked out into.
	LocalName string

	// RemoteName is the canonical remote identity, e.g. "kubicas/repoget".
	RemoteName string

	// Kind is the transport used to reach the remote.
	Kind Transport

	// Host is the network host or filesystem root for the remote.
	Host string

	// Subdir is the path prefix under Host where the remote lives.
	Subdir string
}
