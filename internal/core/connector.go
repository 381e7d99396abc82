// Package core wires host resolution, bastion tunneling, and the SFTP
// client into complete sessions.
//
// The resolved entry list is passed in explicitly for every connection
// attempt; nothing here caches configuration between attempts.
package core

import (
	"context"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	skifferr "skiff/internal/errors"
	"skiff/internal/metrics"
	"skiff/sftp"
	"skiff/sshconfig"
	"skiff/tunnel"
	"skiff/util"
)

// Connector builds authenticated sessions from resolved host
// parameters, tunneling through bastions where the configuration
// names them.
type Connector struct {
	Entries []sshconfig.Entry
	Logger  *util.Logger
	Metrics *metrics.Collector

	// KeyPath overrides every entry's identity file when set (the
	// --ssh-key flag).
	KeyPath       string
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Session is one established connection to a target host, together
// with the bastion clients and tunnel relays that carry it.
type Session struct {
	Host   *sshconfig.Host
	Client *ssh.Client
	SFTP   *sftp.Client

	// hops are every SSH client on the route including the target,
	// outermost first.  relays sit between consecutive hops.
	hops   []*ssh.Client
	relays []*tunnel.Session
	logger *util.Logger
}

// Close tears down the session: SFTP first, then each SSH client and
// relay from the target back out to the first bastion.
func (s *Session) Close() error {
	var errs error
	if s.SFTP != nil {
		errs = joinErr(errs, s.SFTP.Close())
	}
	for i := len(s.hops) - 1; i >= 0; i-- {
		errs = joinErr(errs, s.hops[i].Close())
	}
	for i := len(s.relays) - 1; i >= 0; i-- {
		errs = joinErr(errs, s.relays[i].Close())
	}
	return errs
}

func joinErr(acc, err error) error {
	if err == nil {
		return acc
	}
	return skifferr.Join(acc, err)
}

// Connect resolves name against the connector's entries and
// establishes an authenticated SFTP session with it, hopping through
// any configured bastion chain.
//
// No partially-constructed session survives a failure: every client
// and relay opened for a failed attempt is closed before the error is
// returned.
func (c *Connector) Connect(ctx context.Context, name string) (*Session, error) {
	route, err := BuildRoute(c.Entries, name)
	if err != nil {
		return nil, err
	}

	target := route[len(route)-1]
	c.Logger.Verbose("connecting to %s via %d hop(s)", target.Name, len(route))

	var hops []*ssh.Client
	var relays []*tunnel.Session
	fail := func(err error) (*Session, error) {
		for i := len(hops) - 1; i >= 0; i-- {
			hops[i].Close()
		}
		for i := len(relays) - 1; i >= 0; i-- {
			relays[i].Close()
		}
		return nil, err
	}

	var prev *ssh.Client
	for _, hop := range route {
		hcfg := c.hopConfig(hop)

		var client *ssh.Client
		if prev == nil {
			client, err = tunnel.Dial(ctx, hcfg, c.Logger)
		} else {
			client, err = c.hopThrough(prev, hop, hcfg, &relays)
		}
		if err != nil {
			return fail(err)
		}

		c.Logger.Info("authenticated %s@%s", hcfg.User, hcfg.Addr())
		hops = append(hops, client)
		prev = client
	}

	sftpClient, err := sftp.NewClient(prev, c.Logger, c.Metrics)
	if err != nil {
		return fail(err)
	}

	return &Session{
		Host:   target,
		Client: prev,
		SFTP:   sftpClient,
		hops:   hops,
		relays: relays,
		logger: c.Logger,
	}, nil
}

// hopThrough opens a relay for hop inside the bastion session and
// completes the hop's SSH handshake over the relayed stream.
func (c *Connector) hopThrough(bastion *ssh.Client, hop *sshconfig.Host,
	hcfg *tunnel.HopConfig, relays *[]*tunnel.Session) (*ssh.Client, error) {

	local, remote := net.Pipe()
	relay, err := tunnel.Establish(bastion, hop.EffectiveHostname(), hop.EffectivePort(),
		remote, c.Logger, c.Metrics)
	if err != nil {
		local.Close()
		remote.Close()
		return nil, err
	}
	*relays = append(*relays, relay)

	client, err := tunnel.Client(local, hcfg, c.Logger)
	if err != nil {
		relay.Close()
		local.Close()
		return nil, err
	}
	return client, nil
}

// hopConfig translates a resolved host into the hop's dial and auth
// parameters, applying the connector-wide overrides.
func (c *Connector) hopConfig(h *sshconfig.Host) *tunnel.HopConfig {
	identity := h.IdentityFile
	if c.KeyPath != "" {
		identity = c.KeyPath
	}
	return &tunnel.HopConfig{
		User:          h.User,
		Host:          h.EffectiveHostname(),
		Port:          h.EffectivePort(),
		IdentityFile:  identity,
		StrictHostKey: c.StrictHostKey,
		KnownHosts:    c.KnownHosts,
		ConnTimeout:   c.ConnTimeout,
	}
}
