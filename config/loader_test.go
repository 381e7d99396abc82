package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Host(t *testing.T) {
	t.Setenv("SKIFF_HOST", "db.example.com")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Host != "db.example.com" {
		t.Errorf("Host = %q, want %q", cfg.Host, "db.example.com")
	}
}

func TestLoadFromEnv_Paths(t *testing.T) {
	t.Setenv("SKIFF_CONFIG", "/tmp/ssh_config")
	t.Setenv("SKIFF_SSH_KEY", "/tmp/id_ed25519")
	t.Setenv("SKIFF_KNOWN_HOSTS", "/tmp/known_hosts")
	t.Setenv("SKIFF_LOCAL_DIR", "/srv/data")

	cfg := &Config{}
	LoadFromEnv(cfg)

	if cfg.ConfigPath != "/tmp/ssh_config" {
		t.Errorf("ConfigPath = %q", cfg.ConfigPath)
	}
	if cfg.SSHKeyPath != "/tmp/id_ed25519" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if cfg.KnownHostsPath != "/tmp/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
	if cfg.LocalDir != "/srv/data" {
		t.Errorf("LocalDir = %q", cfg.LocalDir)
	}
}

func TestLoadFromEnv_StrictHostkey(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("SKIFF_STRICT_HOSTKEY", v)
			cfg := &Config{}
			LoadFromEnv(cfg)
			if !cfg.StrictHostKey {
				t.Error("StrictHostKey should be true")
			}
		})
	}

	t.Run("off", func(t *testing.T) {
		t.Setenv("SKIFF_STRICT_HOSTKEY", "0")
		cfg := &Config{}
		LoadFromEnv(cfg)
		if cfg.StrictHostKey {
			t.Error("StrictHostKey should be false")
		}
	})
}

func TestLoadFromEnv_Timeout(t *testing.T) {
	t.Setenv("SKIFF_TIMEOUT", "5")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.ConnTimeout != 5*time.Second {
		t.Errorf("ConnTimeout = %v, want 5s", cfg.ConnTimeout)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("SKIFF_TIMEOUT", "soon")
	t.Setenv("SKIFF_VERBOSE", "-2")
	cfg := &Config{ConnTimeout: DefaultConnTimeout}
	LoadFromEnv(cfg)
	if cfg.ConnTimeout != DefaultConnTimeout {
		t.Errorf("ConnTimeout = %v, want default preserved", cfg.ConnTimeout)
	}
	if cfg.Verbose != 0 {
		t.Errorf("Verbose = %d, want 0", cfg.Verbose)
	}
}

func TestLoadFromEnv_EmptyKeepsExisting(t *testing.T) {
	cfg := &Config{Host: "preset"}
	LoadFromEnv(cfg)
	if cfg.Host != "preset" {
		t.Errorf("Host = %q, want %q", cfg.Host, "preset")
	}
}
