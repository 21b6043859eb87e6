package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/kubicas/repoget/internal/domain"
)

// OrchestratorOptions tunes batch behavior.
type OrchestratorOptions struct {
	// ContinueOnError keeps provisioning the remaining selection after a
	// per-repository failure instead of aborting the batch. Off by
	// default; failures abort immediately.
	ContinueOnError bool
}

// Orchestrator drives the Provisioner over the catalog entries the process
// arguments select. Descriptors are processed strictly sequentially in
// catalog order; the shared I/O streams and working-directory state make
// concurrent provisioning unsafe by default.
type Orchestrator struct {
	provisioner domain.Provisioner
	status      domain.StatusWriter
	logger      Logger
	projectsDir string
	opts        OrchestratorOptions
}

// NewOrchestrator creates an Orchestrator provisioning into projectsDir.
func NewOrchestrator(
	provisioner domain.Provisioner,
	status domain.StatusWriter,
	log Logger,
	projectsDir string,
	opts OrchestratorOptions,
) *Orchestrator {
	return &Orchestrator{
		provisioner: provisioner,
		status:      status,
		logger:      log,
		projectsDir: projectsDir,
		opts:        opts,
	}
}

// Run provisions the subset of catalog selected by args: every entry when
// args is empty, otherwise the entries whose local or remote name matches an
// argument. Selection is deterministic and order-preserving relative to the
// catalog. Under the default policy the first failure aborts the batch; with
// ContinueOnError all selected entries are attempted and the failures are
// joined. Failures are never downgraded to silent success.
func (o *Orchestrator) Run(ctx context.Context, catalog []domain.Descriptor, args []string) error {
	selected, err := selectDescriptors(catalog, args)
	if err != nil {
		return err
	}

	o.logger.Info(ctx, "starting batch provisioning", map[string]interface{}{
		"selected":     len(selected),
		"catalog_size": len(catalog),
		"projects_dir": o.projectsDir,
	})

	var failures []error
	for _, desc := range selected {
		ref := referenceFor(desc)

		result, err := o.provisioner.Get(ctx, ref, o.projectsDir, desc.LocalName)
		if err != nil {
			o.status.Failed(desc.RemoteName, err)
			o.logger.Error(ctx, "provisioning failed", err, map[string]interface{}{
				"remote": desc.RemoteName,
				"local":  desc.LocalName,
			})
			wrapped := fmt.Errorf("repository %s: %w", desc.RemoteName, err)
			if !o.opts.ContinueOnError {
				return wrapped
			}
			failures = append(failures, wrapped)
			continue
		}

		for _, warning := range result.Warnings {
			o.status.Warning(warning)
		}
		o.status.Done(result)
		o.logger.Info(ctx, "repository provisioned", map[string]interface{}{
			"remote": result.Remote,
			"dir":    result.Dir,
			"action": string(result.Action),
		})
	}

	return errors.Join(failures...)
}

// selectDescriptors resolves which catalog entries the arguments name. An
// argument matching no catalog entry is a configuration error.
func selectDescriptors(catalog []domain.Descriptor, args []string) ([]domain.Descriptor, error) {
	if len(args) == 0 {
		return catalog, nil
	}

	wanted := make(map[string]bool, len(args))
	for _, arg := range args {
		wanted[arg] = false
	}

	var selected []domain.Descriptor
	for _, desc := range catalog {
		if _, ok := wanted[desc.LocalName]; ok {
			wanted[desc.LocalName] = true
			selected = append(selected, desc)
			continue
		}
		if _, ok := wanted[desc.RemoteName]; ok {
			wanted[desc.RemoteName] = true
			selected = append(selected, desc)
		}
	}

	for _, arg := range args {
		if !wanted[arg] {
			return nil, fmt.Errorf("%w: no catalog entry named %q", domain.ErrMalformedReference, arg)
		}
	}
	return selected, nil
}

// referenceFor builds the transport Reference variant matching a catalog
// descriptor.
func referenceFor(desc domain.Descriptor) domain.TransportRef {
	return domain.TransportRef{
		Ref: domain.Ref{
			RemoteName: desc.RemoteName,
			LocalName:  desc.LocalName,
		},
		Kind:   desc.Kind,
		Host:   desc.Host,
		Subdir: desc.Subdir,
	}
}
