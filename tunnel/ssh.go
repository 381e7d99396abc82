// Package tunnel establishes authenticated SSH sessions to hops
// resolved from the user's configuration and relays forwarded channels
// through bastion hosts.
package tunnel

import (
	"context"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	skifferr "skiff/internal/errors"
	"skiff/util"
)

// HopConfig holds everything needed to dial and authenticate one hop,
// bastion or target.
type HopConfig struct {
	User          string
	Host          string // dial hostname (already defaulted by the resolver)
	Port          int
	IdentityFile  string // optional private key path
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns the hop's "host:port" dial address.
func (c *HopConfig) Addr() string {
	return util.FormatAddr(c.Host, c.Port)
}

// clientConfig assembles the ssh.ClientConfig for one hop.
func clientConfig(cfg *HopConfig, logger *util.Logger) (*ssh.ClientConfig, error) {
	if cfg.User == "" {
		return nil, skifferr.WrapAuth(cfg.Host, cfg.Port, skifferr.ErrNoUser)
	}

	authMethods, err := BuildAuthMethods(cfg, logger)
	if err != nil {
		return nil, skifferr.WrapAuth(cfg.Host, cfg.Port, err)
	}

	hkCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, skifferr.WrapAuth(cfg.Host, cfg.Port, err)
	}

	timeout := cfg.ConnTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         timeout,
	}, nil
}

// Dial opens a TCP connection to the hop and completes the SSH
// handshake.  The ctx cancels the TCP dial.
func Dial(ctx context.Context, cfg *HopConfig, logger *util.Logger) (*ssh.Client, error) {
	sshCfg, err := clientConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	addr := cfg.Addr()
	logger.Debug("ssh: dialing %s as %s", addr, cfg.User)

	var dialer net.Dialer
	dialer.Timeout = sshCfg.Timeout
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, skifferr.WrapTunnel("dial", cfg.Host, cfg.Port, err)
	}

	client, err := handshake(tcpConn, addr, sshCfg, cfg)
	if err != nil {
		tcpConn.Close()
		return nil, err
	}
	return client, nil
}

// Client completes an SSH handshake over an existing byte stream
// (the caller-side end of a tunnel relay) as if connected directly.
func Client(conn net.Conn, cfg *HopConfig, logger *util.Logger) (*ssh.Client, error) {
	sshCfg, err := clientConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("ssh: handshake with %s over relayed stream", cfg.Addr())
	return handshake(conn, cfg.Addr(), sshCfg, cfg)
}

func handshake(conn net.Conn, addr string, sshCfg *ssh.ClientConfig, cfg *HopConfig) (*ssh.Client, error) {
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		if isAuthFailure(err) {
			return nil, skifferr.WrapAuth(cfg.Host, cfg.Port, skifferr.Join(skifferr.ErrAuthFailed, err))
		}
		return nil, skifferr.WrapTunnel("handshake", cfg.Host, cfg.Port, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// isAuthFailure distinguishes a rejected authentication from other
// handshake failures.  x/crypto/ssh reports it only via the error
// string.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
