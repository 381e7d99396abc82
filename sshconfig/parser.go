package sshconfig

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	skifferr "skiff/internal/errors"
)

// DefaultPath returns the conventional per-user config location,
// ~/.ssh/config.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// Load parses the configuration file at path.  A missing file is not
// an error and yields an empty entry list; any other read failure is
// a ConfigError.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if skifferr.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, skifferr.WrapConfig(path, err)
	}
	defer f.Close()

	return Parse(f), nil
}

// Parse reads a line-oriented configuration stream into an ordered
// list of entries.
//
// Blank lines and lines whose first non-whitespace character is '#'
// are skipped.  Every other line is split into a case-insensitive key
// and a value (remaining tokens rejoined with single spaces).  A
// "host" key starts a new entry from the whitespace-split value;
// other recognized keys set fields on the entry under construction.
// Unknown keys and malformed values are ignored so newer OpenSSH
// directives do not break older skiff builds.
func Parse(r io.Reader) []Entry {
	var entries []Entry
	var current *Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		key := strings.ToLower(fields[0])
		value := strings.Join(fields[1:], " ")

		switch key {
		case "host":
			if current != nil {
				entries = append(entries, *current)
			}
			current = &Entry{Patterns: strings.Fields(value)}

		case "hostname":
			if current != nil {
				current.Hostname = value
			}
		case "user":
			if current != nil {
				current.User = value
			}
		case "port":
			// An unparseable or out-of-range port is dropped, not a
			// parse failure.
			if current != nil {
				if p, err := strconv.Atoi(value); err == nil && p >= 1 && p <= 65535 {
					current.Port = p
				}
			}
		case "identityfile":
			if current != nil {
				current.IdentityFile = value
			}
		case "proxyjump":
			if current != nil {
				current.ProxyJump = value
			}
		}
	}

	if current != nil {
		entries = append(entries, *current)
	}

	return entries
}
