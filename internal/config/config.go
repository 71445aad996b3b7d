// Package config loads the canopus project configuration from
// .github/canopus.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFile is the expected location, relative to the project root.
const ConfigFile = ".github/canopus.toml"

// Config is the parsed canopus.toml.
type Config struct {
	General   General   `toml:"general"`
	Ownership Ownership `toml:"ownership"`
}

// General holds project-wide settings.
type General struct {
	GithubOrganization string `toml:"github-organization"`
	OfflineChecksOnly  bool   `toml:"offline-checks-only"`
}

// Ownership holds the optional rule-strictness settings, all off by default.
type Ownership struct {
	ForbidEmailOwners        bool `toml:"forbid-email-owners"`
	EnforceGithubTeamsOwners bool `toml:"enforce-github-teams-owners"`
	EnforceOneOwnerPerLine   bool `toml:"enforce-one-owner-per-line"`
}

// ErrMissingOrganization is returned when general.github-organization is
// absent from the configuration.
var ErrMissingOrganization = errors.New("general.github-organization is required")

// ConfigPath returns the expected config location for a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(ConfigFile))
}

// Load reads and validates the configuration for the project at root.
func Load(root string) (*Config, error) {
	path := ConfigPath(root)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("expecting configuration at %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.General.GithubOrganization == "" {
		return nil, ErrMissingOrganization
	}

	return &cfg, nil
}

// Effective is the flag set the validator actually consults, computed once so
// the override between flags cannot drift between rules.
type Effective struct {
	Organization           string
	OfflineOnly            bool
	ForbidEmailOwners      bool
	EnforceGithubTeams     bool
	EnforceOneOwnerPerLine bool
}

// Effective resolves the stored flags into their effective values.
// enforce-github-teams-owners forces forbid-email-owners on: the stricter
// option replaces the weaker one, it does not merely add to it.
func (c *Config) Effective() Effective {
	return Effective{
		Organization:           c.General.GithubOrganization,
		OfflineOnly:            c.General.OfflineChecksOnly,
		ForbidEmailOwners:      c.Ownership.ForbidEmailOwners || c.Ownership.EnforceGithubTeamsOwners,
		EnforceGithubTeams:     c.Ownership.EnforceGithubTeamsOwners,
		EnforceOneOwnerPerLine: c.Ownership.EnforceOneOwnerPerLine,
	}
}
