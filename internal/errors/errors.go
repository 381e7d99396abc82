// Package errors provides domain-specific error types for skiff.
//
// These types carry structured context (hop address, relay direction,
// config source) that helps callers decide how to handle failures and
// provides better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNoMatchingHost = errors.New("no matching host entry")
	ErrInvalidPort    = errors.New("port outside range 1-65535")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrNoUser         = errors.New("no user configured")
	ErrTunnelClosed   = errors.New("tunnel session closed")
)

// ── Structured error types ───────────────────────────────────────────

// ConfigError represents a configuration file that exists but cannot
// be read or used.  A missing file is not a ConfigError.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AuthError represents a failed authentication against one hop.
type AuthError struct {
	Host string
	Port int
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TunnelError represents a failure to set up a forwarded channel
// through a bastion.
type TunnelError struct {
	Op   string // "open-channel", "handshake", "validate"
	Host string
	Port int
	Err  error
}

func (e *TunnelError) Error() string {
	return fmt.Sprintf("tunnel %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *TunnelError) Unwrap() error { return e.Err }

// RelayError represents an unrecoverable read or write failure in one
// relay direction.  Would-block conditions are never RelayErrors.
type RelayError struct {
	Direction string // "inbound" or "outbound"
	Err       error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Direction, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// WrapConfig creates a ConfigError.
func WrapConfig(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// WrapAuth creates an AuthError.
func WrapAuth(host string, port int, err error) *AuthError {
	return &AuthError{Host: host, Port: port, Err: err}
}

// WrapTunnel creates a TunnelError.
func WrapTunnel(op, host string, port int, err error) *TunnelError {
	return &TunnelError{Op: op, Host: host, Port: port, Err: err}
}

// WrapRelay creates a RelayError.
func WrapRelay(direction string, err error) *RelayError {
	return &RelayError{Direction: direction, Err: err}
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use skiff/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
