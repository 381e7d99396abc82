package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 80, "127.0.0.1:80"},
		{"::1", 443, "[::1]:443"},
		{"example.com", 2222, "example.com:2222"},
	}

	for _, tt := range tests {
		if got := FormatAddr(tt.host, tt.port); got != tt.want {
			t.Errorf("FormatAddr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.ssh/id_ed25519", filepath.Join(home, ".ssh", "id_ed25519")},
		{"~", home},
		{"/etc/ssh/key", "/etc/ssh/key"},
		{"relative/key", "relative/key"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
