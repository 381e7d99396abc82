package tunnel

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	"skiff/util"
)

// BuildAuthMethods assembles the ordered list of SSH authentication
// methods for one hop.
//
// When an identity file is configured it is tried first; the agent is
// always appended after it as the fallback, so a key the server
// rejects falls through to agent authentication within the same
// handshake.  Without an identity file the agent is the only method.
// A key file that cannot be read or parsed is logged and skipped
// rather than failing the hop; the agent fallback still applies.
func BuildAuthMethods(cfg *HopConfig, logger *util.Logger) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.IdentityFile != "" {
		keyPath := util.ExpandPath(cfg.IdentityFile)
		m, err := publicKeyAuth(keyPath)
		if err != nil {
			logger.Warn("identity file %s unusable, falling back to agent: %v", keyPath, err)
		} else {
			methods = append(methods, m)
		}
	}

	if m, err := agentAuth(); err == nil {
		methods = append(methods, m)
	} else if len(methods) == 0 {
		return nil, fmt.Errorf("ssh-agent: %w", err)
	} else {
		logger.Debug("ssh-agent unavailable: %v", err)
	}

	return methods, nil
}

// ── individual auth builders ─────────────────────────────────────────

// publicKeyAuth loads the private key at keyPath.  A companion
// "<keyPath>.pub" holding a certificate is wrapped around the signer
// when present; a plain public key companion is ignored.
func publicKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		// If the key is encrypted, prompt for the passphrase.
		if _, ok := err.(*ssh.PassphraseMissingError); ok {
			fmt.Fprintf(os.Stderr, "Enter passphrase for %s: ", keyPath)
			pass, err2 := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err2 != nil {
				return nil, fmt.Errorf("reading passphrase: %w", err2)
			}
			signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
			if err != nil {
				return nil, fmt.Errorf("decrypting key: %w", err)
			}
		} else {
			return nil, fmt.Errorf("parsing key: %w", err)
		}
	}

	if certSigner := companionCertSigner(keyPath, signer); certSigner != nil {
		signer = certSigner
	}

	return ssh.PublicKeys(signer), nil
}

// companionCertSigner returns a certificate-bearing signer when
// "<keyPath>.pub" (or the OpenSSH "-cert.pub" convention) contains a
// certificate for the key, or nil otherwise.
func companionCertSigner(keyPath string, signer ssh.Signer) ssh.Signer {
	for _, p := range []string{keyPath + "-cert.pub", keyPath + ".pub"} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			continue
		}
		cert, ok := pub.(*ssh.Certificate)
		if !ok {
			continue
		}
		cs, err := ssh.NewCertSigner(cert, signer)
		if err != nil {
			continue
		}
		return cs
	}
	return nil
}

func agentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent at %s: %w", sock, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// ── host-key verification ────────────────────────────────────────────

func hostKeyCallback(cfg *HopConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		//nolint:gosec // user opted out of host key checking
		return ssh.InsecureIgnoreHostKey(), nil
	}

	khFile := cfg.KnownHosts
	if khFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		khFile = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(khFile)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts from %s: %w", khFile, err)
	}
	return cb, nil
}
