// Package config defines the runtime configuration for skiff and its
// validation rules.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every tuneable for a single skiff session.
type Config struct {
	// ── Target ───────────────────────────────────────────────────────
	Host       string // name to resolve and connect to
	ListHosts  bool   // print configured hosts and exit
	ConfigPath string // SSH config file ("" → ~/.ssh/config)

	// ── Authentication ───────────────────────────────────────────────
	SSHKeyPath     string // overrides any IdentityFile from the config
	StrictHostKey  bool
	KnownHostsPath string
	ConnTimeout    time.Duration

	// ── Local side ───────────────────────────────────────────────────
	LocalDir string // starting directory for the local pane

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host != "" && c.ListHosts {
		return fmt.Errorf("--host and --list are mutually exclusive")
	}

	if c.SSHKeyPath != "" {
		if _, err := os.Stat(c.SSHKeyPath); err != nil {
			return fmt.Errorf("ssh key %s: %w", c.SSHKeyPath, err)
		}
	}

	if c.StrictHostKey && c.KnownHostsPath != "" {
		if _, err := os.Stat(c.KnownHostsPath); err != nil {
			return fmt.Errorf("known_hosts %s: %w", c.KnownHostsPath, err)
		}
	}

	if c.ConnTimeout < 0 {
		return fmt.Errorf("negative connection timeout")
	}

	return nil
}
