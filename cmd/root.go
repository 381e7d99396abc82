// Package cmd wires up the CLI flags and dispatches to the host list
// or the interactive browser.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"skiff/config"
	"skiff/internal/core"
	"skiff/internal/metrics"
	"skiff/internal/tui"
	"skiff/sshconfig"
	"skiff/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X skiff/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate skiff mode.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{ConnTimeout: config.DefaultConnTimeout}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("skiff", flag.ContinueOnError)

	// ── target ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "SSH host to connect to")
	fs.BoolVar(&cfg.ListHosts, "list", false, "List configured hosts and exit")
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "SSH config file (default ~/.ssh/config)")

	// ── authentication ───────────────────────────────────────────
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file (overrides IdentityFile)")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Connection timeout in seconds")

	// ── local side ───────────────────────────────────────────────
	fs.StringVar(&cfg.LocalDir, "local-dir", cfg.LocalDir, "Starting directory for the local pane")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("skiff %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.ConnTimeout = time.Duration(timeoutSec) * time.Second
	}

	// A bare positional argument is shorthand for -H.
	if rest := fs.Args(); len(rest) > 0 {
		if len(rest) > 1 {
			return fmt.Errorf("too many arguments: %v", rest[1:])
		}
		if cfg.Host != "" && cfg.Host != rest[0] {
			return fmt.Errorf("host given both as flag (%s) and argument (%s)", cfg.Host, rest[0])
		}
		cfg.Host = rest[0]
	}

	if cfg.LocalDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining working directory: %w", err)
		}
		cfg.LocalDir = wd
	}
	cfg.LocalDir = filepath.Clean(cfg.LocalDir)

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── load configuration ───────────────────────────────────────
	configPath := cfg.ConfigPath
	if configPath == "" {
		p, err := sshconfig.DefaultPath()
		if err != nil {
			return fmt.Errorf("locating ssh config: %w", err)
		}
		configPath = p
	}
	entries, err := sshconfig.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.ListHosts {
		return listHosts(os.Stdout, entries)
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	// Log lines would tear the alternate screen, so the TUI logs to
	// a file instead of stderr.
	if closer, ferr := logger.RedirectToFile(config.LogFileName); ferr == nil {
		defer closer.Close()
	}

	connector := &core.Connector{
		Entries:       entries,
		Logger:        logger,
		Metrics:       metrics.New(),
		KeyPath:       cfg.SSHKeyPath,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.ConnTimeout,
	}

	return tui.Run(ctx, tui.Options{
		Connector:   connector,
		InitialHost: cfg.Host,
		LocalDir:    cfg.LocalDir,
		Logger:      logger,
		Version:     version,
	})
}

// ── helpers ──────────────────────────────────────────────────────────

// listHosts prints every literal host from the configuration in file
// order, one per line with its resolved destination.
func listHosts(w io.Writer, entries []sshconfig.Entry) error {
	hosts := sshconfig.LiteralHosts(entries)
	if len(hosts) == 0 {
		fmt.Fprintln(w, "no hosts configured")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tDESTINATION\tUSER\tVIA")
	for _, h := range hosts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Name, h.Addr(), h.User, h.ProxyJump)
	}
	return tw.Flush()
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Skiff - dual-pane terminal SFTP client v%s

Browses a local and a remote directory side by side, resolving hosts
from ~/.ssh/config and tunneling through ProxyJump bastions.

Usage:
  skiff [options]                 Browse, pick a host interactively
  skiff [options] <host>          Connect to a configured host
  skiff --list                    Print configured hosts

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Keys:
  tab          switch pane            space   mark file
  enter        open directory         t       queue marked transfers
  /            filter listings        c       host picker
  q            quit

Examples:
  skiff web01                     Connect to web01 from ~/.ssh/config
  skiff -H db --ssh-key ~/.ssh/alt_ed25519
  skiff --list --config ./ssh_config
  SKIFF_STRICT_HOSTKEY=1 skiff bastion-host
`)
}
