package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubicas/repoget/internal/domain"
)

type testLogger struct{}

func (l *testLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (l *testLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

type fakeBackend struct{}

func (b *fakeBackend) Clone(_ context.Context, _, _ string, _ *domain.Credentials) error { return nil }
func (b *fakeBackend) Fetch(_ context.Context, _ string, _ *domain.Credentials) error    { return nil }
func (b *fakeBackend) Checkout(_ context.Context, _, _ string) error                     { return nil }
func (b *fakeBackend) SyncSubmodules(_ context.Context, _ string, _ *domain.Credentials) error {
	return nil
}
func (b *fakeBackend) SetIdentity(_ context.Context, _, _, _ string) error { return nil }
func (b *fakeBackend) RemoteURL(_ context.Context, _ string) (string, error) {
	return "", errors.New("not a repository")
}

type fakeProvisioner struct{}

func (p *fakeProvisioner) Get(_ context.Context, ref domain.Reference, path, dirname string) (*domain.GetResult, error) {
	return &domain.GetResult{Remote: ref.Remote(), Dir: path + dirname, Action: domain.ActionCloned}, nil
}
func (p *fakeProvisioner) HasCommitUser() bool { return false }

type fakeStatus struct{}

func (s *fakeStatus) Cloning(_, _ string)      {}
func (s *fakeStatus) Updating(_, _ string)     {}
func (s *fakeStatus) Done(_ *domain.GetResult) {}
func (s *fakeStatus) Warning(_ string)         {}
func (s *fakeStatus) Failed(_ string, _ error) {}

// recordingOrchestrator records the Run invocation for assertions.
type recordingOrchestrator struct {
	catalog []domain.Descriptor
	args    []string
	runErr  error
}

func (o *recordingOrchestrator) Run(_ context.Context, catalog []domain.Descriptor, args []string) error {
	o.catalog = catalog
	o.args = args
	return o.runErr
}

// testWiring bundles the mock dependencies with pointers to the values the
// factories captured, so tests can assert on what the command wired together.
type testWiring struct {
	deps         *Dependencies
	orchestrator *recordingOrchestrator

	capturedPrompt      domain.CredentialPrompt
	capturedOverwrite   bool
	capturedProjectsDir string
	capturedContinue    bool
}

func testCatalog() []domain.Descriptor {
	return []domain.Descriptor{
		{LocalName: "intf", RemoteName: "kubicas/intf", Kind: domain.TransportHTTPS, Host: "github.com", Subdir: "kubicas/"},
		{LocalName: "repo", RemoteName: "kubicas/repo", Kind: domain.TransportHTTPS, Host: "github.com", Subdir: "kubicas/"},
	}
}

func newTestWiring(cfg *AppConfig, cfgErr error) *testWiring {
	w := &testWiring{orchestrator: &recordingOrchestrator{}}
	w.deps = &Dependencies{
		LoggerFactory: func() Logger { return &testLogger{} },
		ConfigLoader: func() (*AppConfig, error) {
			return cfg, cfgErr
		},
		BackendFactory: func(_ Logger) domain.Backend { return &fakeBackend{} },
		ProvisionerFactory: func(
			_ domain.Backend,
			_ io.Writer,
			_ io.Reader,
			prompt domain.CredentialPrompt,
			_ domain.StatusWriter,
			_ Logger,
			overwrite bool,
		) domain.Provisioner {
			w.capturedPrompt = prompt
			w.capturedOverwrite = overwrite
			return &fakeProvisioner{}
		},
		OrchestratorFactory: func(
			_ domain.Provisioner,
			_ domain.StatusWriter,
			_ Logger,
			projectsDir string,
			continueOnError bool,
		) domain.Orchestrator {
			w.capturedProjectsDir = projectsDir
			w.capturedContinue = continueOnError
			return w.orchestrator
		},
		StatusWriterFactory: func(_ io.Writer) domain.StatusWriter { return &fakeStatus{} },
		CredentialPrompt: func(_ io.Writer, _ io.Reader, _ string) (domain.Credentials, error) {
			return domain.Credentials{Username: "alice", Password: "secret"}, nil
		},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		Stdin:  bytes.NewReader(nil),
	}
	return w
}

// resetFlags restores the package-level flag variables to their defaults so
// values set by one command run cannot leak into the next.
func resetFlags() {
	projectsDir = ""
	continueOnError = false
	overwrite = false
	noInput = false
	verbose = false
}

func execute(t *testing.T, deps *Dependencies, args ...string) error {
	t.Helper()
	resetFlags()
	cmd := NewRootCmdWithDeps(deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRootCmd_FlagsRegistered(t *testing.T) {
	cmd := NewRootCmdWithDeps(nil)

	for _, name := range []string{"projects-dir", "continue-on-error", "overwrite", "no-input", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s not registered", name)
	}
	assert.Equal(t, "p", cmd.Flags().Lookup("projects-dir").Shorthand)
	assert.Equal(t, "k", cmd.Flags().Lookup("continue-on-error").Shorthand)
}

func TestRootCmd_NilDependencies(t *testing.T) {
	err := execute(t, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependencies not configured")
}

func TestRootCmd_ConfigError(t *testing.T) {
	w := newTestWiring(nil, errors.New("catalog unreadable"))

	err := execute(t, w.deps)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestRootCmd_RunsFullCatalog(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps)

	require.NoError(t, err)
	assert.Equal(t, cfg.Catalog, w.orchestrator.catalog)
	assert.Empty(t, w.orchestrator.args)
	assert.Equal(t, "/home/user/projects/", w.capturedProjectsDir)
}

func TestRootCmd_PassesSelection(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps, "repo", "intf")

	require.NoError(t, err)
	assert.Equal(t, []string{"repo", "intf"}, w.orchestrator.args)
}

func TestRootCmd_ProjectsDirFlagOverridesConfig(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps, "--projects-dir", "/srv/build/projects/")

	require.NoError(t, err)
	assert.Equal(t, "/srv/build/projects/", w.capturedProjectsDir)
}

func TestRootCmd_NoInputDisablesPrompt(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps, "--no-input")

	require.NoError(t, err)
	assert.Nil(t, w.capturedPrompt)
}

func TestRootCmd_PromptWiredByDefault(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps)

	require.NoError(t, err)
	assert.NotNil(t, w.capturedPrompt)
}

func TestRootCmd_OverwriteFlag(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps, "--overwrite")

	require.NoError(t, err)
	assert.True(t, w.capturedOverwrite)
}

func TestRootCmd_ContinueOnErrorFlag(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)

	err := execute(t, w.deps, "-k")

	require.NoError(t, err)
	assert.True(t, w.capturedContinue)
}

func TestRootCmd_FlagsDoNotLeakAcrossRuns(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	first := newTestWiring(cfg, nil)
	require.NoError(t, execute(t, first.deps, "--projects-dir", "/srv/build/projects/", "--overwrite", "-k"))

	second := newTestWiring(cfg, nil)
	require.NoError(t, execute(t, second.deps))

	assert.Equal(t, "/home/user/projects/", second.capturedProjectsDir)
	assert.False(t, second.capturedOverwrite)
	assert.False(t, second.capturedContinue)
}

func TestRootCmd_OrchestratorFailure(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)
	w.orchestrator.runErr = errors.New("remote unreachable")

	err := execute(t, w.deps)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote unreachable")
}

func TestRootCmd_ConflictSuggestsOverwrite(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/projects/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)
	w.orchestrator.runErr = fmt.Errorf("repository kubicas/repo: %w", domain.ErrAlreadyExists)

	err := execute(t, w.deps)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "--overwrite")
}

func TestRootCmd_PathConventionMessage(t *testing.T) {
	cfg := &AppConfig{ProjectsDir: "/home/user/work/", Catalog: testCatalog()}
	w := newTestWiring(cfg, nil)
	w.orchestrator.runErr = fmt.Errorf("repository kubicas/repo: %w", domain.ErrPathConvention)

	err := execute(t, w.deps)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `does not end with "projects/"`)
}
