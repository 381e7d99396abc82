package util

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ExpandPath replaces a leading "~/" with the user's home directory.
// Paths without the prefix are returned unchanged, as is everything
// when the home directory cannot be determined.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
