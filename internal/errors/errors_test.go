package errors

import (
	"fmt"
	"io"
	"testing"
)

// ── Structured types ─────────────────────────────────────────────────

func TestConfigError(t *testing.T) {
	err := WrapConfig("/home/u/.ssh/config", io.ErrUnexpectedEOF)

	if got := err.Error(); got != "config /home/u/.ssh/config: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, io.ErrUnexpectedEOF) {
		t.Error("ConfigError should unwrap to its cause")
	}
}

func TestAuthError(t *testing.T) {
	err := WrapAuth("bastion.example.com", 22, ErrAuthFailed)

	if got := err.Error(); got != "auth bastion.example.com:22: authentication failed" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrAuthFailed) {
		t.Error("AuthError should unwrap to ErrAuthFailed")
	}

	var ae *AuthError
	if !As(err, &ae) {
		t.Fatal("As should find *AuthError")
	}
	if ae.Host != "bastion.example.com" || ae.Port != 22 {
		t.Errorf("host/port = %s:%d", ae.Host, ae.Port)
	}
}

func TestTunnelError(t *testing.T) {
	cause := New("administratively prohibited")
	err := WrapTunnel("open-channel", "db1", 5432, cause)

	if got := err.Error(); got != "tunnel open-channel db1:5432: administratively prohibited" {
		t.Errorf("Error() = %q", got)
	}
	if Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestTunnelErrorInvalidPort(t *testing.T) {
	err := WrapTunnel("validate", "db1", 0, ErrInvalidPort)
	if !Is(err, ErrInvalidPort) {
		t.Error("validation error should unwrap to ErrInvalidPort")
	}
}

func TestRelayError(t *testing.T) {
	err := WrapRelay("inbound", io.ErrClosedPipe)

	if got := err.Error(); got != "relay inbound: io: read/write on closed pipe" {
		t.Errorf("Error() = %q", got)
	}

	var re *RelayError
	if !As(err, &re) {
		t.Fatal("As should find *RelayError")
	}
	if re.Direction != "inbound" {
		t.Errorf("Direction = %q", re.Direction)
	}
}

// ── Wrapping through fmt ─────────────────────────────────────────────

func TestSentinelSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("resolving %q: %w", "unknown-host", ErrNoMatchingHost)
	if !Is(err, ErrNoMatchingHost) {
		t.Error("sentinel should survive fmt.Errorf wrapping")
	}
}

func TestJoin(t *testing.T) {
	err := Join(ErrTunnelClosed, ErrAuthFailed)
	if !Is(err, ErrTunnelClosed) || !Is(err, ErrAuthFailed) {
		t.Error("Join should retain both errors")
	}
}
