// Package main is the entry point for the repoget CLI application.
// repoget provisions and keeps up to date a set of version-controlled source
// checkouts under a well-known projects directory, cloning what is missing
// and updating what exists, nested sub-repositories included.
package main

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/kubicas/repoget/cmd"
	"github.com/kubicas/repoget/internal/adapters/git"
	logadapter "github.com/kubicas/repoget/internal/adapters/logger"
	"github.com/kubicas/repoget/internal/adapters/output"
	"github.com/kubicas/repoget/internal/adapters/prompt"
	"github.com/kubicas/repoget/internal/domain"
	"github.com/kubicas/repoget/internal/infrastructure/config"
	"github.com/kubicas/repoget/internal/usecases"
)

func main() {
	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			level := os.Getenv(config.EnvLogLevel)
			if level == "" {
				level = config.DefaultLogLevel
			}
			adapter, err := logadapter.NewProduction(level)
			if err != nil {
				// A logger that cannot be built leaves no channel to
				// report through; fall back to a no-op zap core.
				adapter = logadapter.NewZapAdapter(zap.NewNop())
			}
			return adapter
		},

		ConfigLoader: func() (*cmd.AppConfig, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				ProjectsDir: cfg.ProjectsDir,
				Catalog:     cfg.Catalog,
				LogLevel:    cfg.LogLevel,
			}, nil
		},

		BackendFactory: func(log cmd.Logger) domain.Backend {
			return git.NewGoGitBackend(log, git.BackendOptions{})
		},

		ProvisionerFactory: func(
			backend domain.Backend,
			out io.Writer,
			in io.Reader,
			credPrompt domain.CredentialPrompt,
			status domain.StatusWriter,
			log cmd.Logger,
			overwrite bool,
		) domain.Provisioner {
			return usecases.NewProvisioner(backend, out, in, credPrompt, status, log,
				usecases.ProvisionerOptions{Overwrite: overwrite})
		},

		OrchestratorFactory: func(
			provisioner domain.Provisioner,
			status domain.StatusWriter,
			log cmd.Logger,
			projectsDir string,
			continueOnError bool,
		) domain.Orchestrator {
			return usecases.NewOrchestrator(provisioner, status, log, projectsDir,
				usecases.OrchestratorOptions{ContinueOnError: continueOnError})
		},

		StatusWriterFactory: func(out io.Writer) domain.StatusWriter {
			if f, ok := out.(*os.File); ok && f == os.Stdout {
				return output.NewWriter()
			}
			return output.NewWriterWithOutput(out)
		},

		CredentialPrompt: prompt.AskCredentials,

		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}
