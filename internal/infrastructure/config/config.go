// Package config provides configuration loading for the repoget application.
// It handles the projects directory location, archive host defaults and the
// repository catalog, from environment variables and an optional YAML
// catalog file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kubicas/repoget/internal/domain"
)

// Environment variable names.
const (
	// EnvProjectsDir is the projects directory checkouts are provisioned
	// into. Must end with a "projects" segment.
	EnvProjectsDir = "REPOGET_PROJECTS_DIR"

	// EnvCatalog is the path to a YAML catalog file replacing the
	// compiled-in catalog.
	EnvCatalog = "REPOGET_CATALOG"

	// EnvArchiveHost overrides the default archive host.
	EnvArchiveHost = "REPOGET_ARCHIVE_HOST"

	// EnvArchiveSubdir overrides the default archive subdirectory.
	EnvArchiveSubdir = "REPOGET_ARCHIVE_SUBDIR"

	// EnvArchiveTransport overrides the default archive transport
	// (https, file or ssh).
	EnvArchiveTransport = "REPOGET_ARCHIVE_TRANSPORT"

	// EnvLogLevel is the log level (debug, info, warn, error).
	EnvLogLevel = "REPOGET_LOG_LEVEL"
)

// Default archive location: the GitHub HTTPS mirror. A local file mirror
// (e.g. a USB checkout) is selected by pointing EnvArchiveHost at its root
// and EnvArchiveTransport at "file".
const (
	DefaultArchiveHost      = "github.com"
	DefaultArchiveSubdir    = "kubicas/"
	DefaultArchiveTransport = domain.TransportHTTPS
	DefaultLogLevel         = "info"
)

// Configuration errors.
var (
	// ErrCatalogNotFound indicates the catalog file does not exist.
	ErrCatalogNotFound = errors.New("catalog file not found")

	// ErrCatalogInvalid indicates the catalog file is not valid YAML or
	// names an unknown transport.
	ErrCatalogInvalid = errors.New("catalog file is invalid")
)

// Config holds all application configuration.
type Config struct {
	// ProjectsDir is where checkouts are provisioned. Always ends with a
	// separator so the projects-directory convention holds structurally.
	ProjectsDir string

	// Catalog is the list of known repositories available for batch
	// provisioning, in provisioning order.
	Catalog []domain.Descriptor

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string
}

// Load loads the application configuration from environment variables and,
// when configured, the YAML catalog file. Absent settings fall back to the
// compiled-in defaults.
func Load() (*Config, error) {
	projectsDir := os.Getenv(EnvProjectsDir)
	if projectsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		projectsDir = filepath.Join(home, domain.ProjectsDirName)
	}
	if projectsDir[len(projectsDir)-1] != os.PathSeparator && projectsDir[len(projectsDir)-1] != '/' {
		projectsDir += string(os.PathSeparator)
	}

	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	return &Config{
		ProjectsDir: projectsDir,
		Catalog:     catalog,
		LogLevel:    logLevel,
	}, nil
}

// loadCatalog reads the catalog file when configured, otherwise returns the
// compiled-in catalog against the configured archive defaults.
func loadCatalog() ([]domain.Descriptor, error) {
	if path := os.Getenv(EnvCatalog); path != "" {
		return loadCatalogFile(path)
	}

	host := os.Getenv(EnvArchiveHost)
	if host == "" {
		host = DefaultArchiveHost
	}
	subdir := os.Getenv(EnvArchiveSubdir)
	if subdir == "" {
		subdir = DefaultArchiveSubdir
	}
	kind := DefaultArchiveTransport
	if s := os.Getenv(EnvArchiveTransport); s != "" {
		parsed, err := domain.ParseTransport(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %q", EnvArchiveTransport, err, s)
		}
		kind = parsed
	}

	return defaultCatalog(host, subdir, kind), nil
}

// defaultCatalog is the compiled-in catalog of known repositories, all living
// under the same archive host.
func defaultCatalog(host, subdir string, kind domain.Transport) []domain.Descriptor {
	names := []string{"intf", "repo", "bldpc", "doc"}
	catalog := make([]domain.Descriptor, 0, len(names))
	for _, name := range names {
		catalog = append(catalog, domain.Descriptor{
			LocalName:  name,
			RemoteName: subdir + name,
			Kind:       kind,
			Host:       host,
			Subdir:     subdir,
		})
	}
	return catalog
}

// catalogFile is the YAML shape of a catalog file:
//
//	repositories:
//	  - local: repo
//	    remote: kubicas/repo
//	    transport: https
//	    host: github.com
//	    subdir: kubicas/
type catalogFile struct {
	Repositories []catalogEntry `yaml:"repositories"`
}

type catalogEntry struct {
	Local     string `yaml:"local"`
	Remote    string `yaml:"remote"`
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Subdir    string `yaml:"subdir"`
}

// loadCatalogFile parses a YAML catalog file into descriptors, preserving
// file order.
func loadCatalogFile(path string) ([]domain.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("could not read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogInvalid, err)
	}

	catalog := make([]domain.Descriptor, 0, len(file.Repositories))
	for _, entry := range file.Repositories {
		kind, err := domain.ParseTransport(entry.Transport)
		if err != nil {
			return nil, fmt.Errorf("%w: repository %q: %w: %q", ErrCatalogInvalid, entry.Remote, err, entry.Transport)
		}
		catalog = append(catalog, domain.Descriptor{
			LocalName:  entry.Local,
			RemoteName: entry.Remote,
			Kind:       kind,
			Host:       entry.Host,
			Subdir:     entry.Subdir,
		})
	}
	return catalog, nil
}
