package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the SKIFF_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SKIFF_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SKIFF_CONFIG"); v != "" {
		cfg.ConfigPath = v
	}
	if v := os.Getenv("SKIFF_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("SKIFF_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("SKIFF_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if v := envInt("SKIFF_TIMEOUT"); v > 0 {
		cfg.ConnTimeout = time.Duration(v) * time.Second
	}
	if v := os.Getenv("SKIFF_LOCAL_DIR"); v != "" {
		cfg.LocalDir = v
	}
	if v := envInt("SKIFF_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
