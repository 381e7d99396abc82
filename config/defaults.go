package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout per hop.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRemoteDir is the remote pane's starting directory when the
	// server does not report a home directory.
	DefaultRemoteDir = "."

	// LogFileName is where the TUI redirects log output so messages do
	// not tear the alternate screen.
	LogFileName = "skiff.log"
)
