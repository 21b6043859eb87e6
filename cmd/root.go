// Package cmd provides the CLI commands for repoget.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubicas/repoget/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// ProjectsDir is the projects directory checkouts are provisioned into.
	ProjectsDir string

	// Catalog is the full list of known repositories, in provisioning order.
	Catalog []domain.Descriptor

	// LogLevel is the log level setting.
	LogLevel string
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*AppConfig, error)

	// BackendFactory creates the VCS backend.
	BackendFactory func(log Logger) domain.Backend

	// ProvisionerFactory creates the Provisioner around the backend, the
	// I/O streams and the credential prompt. A nil prompt disables
	// interactive authentication.
	ProvisionerFactory func(
		backend domain.Backend,
		out io.Writer,
		in io.Reader,
		prompt domain.CredentialPrompt,
		status domain.StatusWriter,
		log Logger,
		overwrite bool,
	) domain.Provisioner

	// OrchestratorFactory creates the batch Orchestrator.
	OrchestratorFactory func(
		provisioner domain.Provisioner,
		status domain.StatusWriter,
		log Logger,
		projectsDir string,
		continueOnError bool,
	) domain.Orchestrator

	// StatusWriterFactory creates the status writer for progress text.
	StatusWriterFactory func(out io.Writer) domain.StatusWriter

	// CredentialPrompt is the interactive credential prompt; nil disables
	// interactive authentication.
	CredentialPrompt domain.CredentialPrompt

	// Stdout receives status/progress text.
	Stdout io.Writer

	// Stderr receives errors.
	Stderr io.Writer

	// Stdin is paired with the credential prompt.
	Stdin io.Reader
}

// Command-line flags.
var (
	projectsDir     string
	continueOnError bool
	overwrite       bool
	noInput         bool
	verbose         bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for repoget.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repoget [repository...]",
		Short: "Provision and update source checkouts under the projects directory",
		Long: `repoget guarantees that the checkouts named by the catalog exist under the
projects directory and are up to date, including nested sub-repositories.

With no arguments every catalog entry is provisioned; otherwise only the
named repositories are, in catalog order. Each repository is either freshly
cloned or brought up to date; a directory holding something other than the
expected remote fails loudly unless --overwrite is given.

Examples:
  # Provision the full catalog
  repoget

  # Provision two repositories by name
  repoget repo intf

  # Replace a conflicting checkout
  repoget --overwrite repo

  # Non-interactive use (never prompt for credentials)
  repoget --no-input`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, args, deps)
		},
	}

	rootCmd.Flags().StringVarP(&projectsDir, "projects-dir", "p", "",
		`Projects directory to provision into (must end with "projects/")`)
	rootCmd.Flags().BoolVarP(&continueOnError, "continue-on-error", "k", false,
		"Keep provisioning remaining repositories after a failure")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false,
		"Replace a target directory that is not a checkout of the expected remote")
	rootCmd.Flags().BoolVar(&noInput, "no-input", false,
		"Disable interactive credential prompts")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runProvision executes the batch provisioning with injected dependencies.
func runProvision(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if verbose {
		if err := os.Setenv("REPOGET_LOG_LEVEL", "debug"); err != nil {
			// Best-effort: verbose logging is non-critical.
			fmt.Fprintf(stderr(deps), "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}

	dir := cfg.ProjectsDir
	if projectsDir != "" {
		dir = projectsDir
	}

	log.Info(ctx, "starting repoget", map[string]interface{}{
		"projects_dir":      dir,
		"catalog_size":      len(cfg.Catalog),
		"selection":         args,
		"continue_on_error": continueOnError,
		"overwrite":         overwrite,
	})

	prompt := deps.CredentialPrompt
	if noInput {
		prompt = nil
	}

	backend := deps.BackendFactory(log)
	status := deps.StatusWriterFactory(stdout(deps))
	provisioner := deps.ProvisionerFactory(backend, stdout(deps), stdin(deps), prompt, status, log, overwrite)
	orchestrator := deps.OrchestratorFactory(provisioner, status, log, dir, continueOnError)

	if err := orchestrator.Run(ctx, cfg.Catalog, args); err != nil {
		log.Error(ctx, "batch provisioning failed", err, nil)
		switch {
		case errors.Is(err, domain.ErrPathConvention):
			return fmt.Errorf(`projects directory %q does not end with "projects/"`, dir)
		case errors.Is(err, domain.ErrAlreadyExists):
			return fmt.Errorf("%w (pass --overwrite to replace it)", err)
		default:
			return err
		}
	}

	log.Info(ctx, "batch provisioning complete", nil)
	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func stdout(deps *Dependencies) io.Writer {
	if deps.Stdout != nil {
		return deps.Stdout
	}
	return os.Stdout
}

func stderr(deps *Dependencies) io.Writer {
	if deps.Stderr != nil {
		return deps.Stderr
	}
	return os.Stderr
}

func stdin(deps *Dependencies) io.Reader {
	if deps.Stdin != nil {
		return deps.Stdin
	}
	return os.Stdin
}
