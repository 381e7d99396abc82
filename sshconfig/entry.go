// Package sshconfig parses OpenSSH-style per-user configuration files
// and resolves host names against their pattern entries.
//
// Entries are kept in file order and merged per field with
// first-set-wins semantics: the earliest matching entry that sets a
// field determines its value, so specific entries placed before
// general wildcards take precedence even under cumulative merging.
package sshconfig

import "skiff/util"

// DefaultPort is the standard SSH port applied when no entry sets one.
const DefaultPort = 22

// Entry is one parsed configuration stanza: the patterns from a Host
// line plus the fields that followed it.  Entries are immutable after
// parsing and their file order is significant.
type Entry struct {
	Patterns     []string
	Hostname     string
	User         string
	Port         int // 0 means unset; set values are within 1-65535
	IdentityFile string
	ProxyJump    string
}

// matches reports whether any of the entry's patterns matches name.
func (e *Entry) matches(name string) bool {
	for _, p := range e.Patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

// Host is the merged connection parameter set for one queried name.
// Fields left empty by every matching entry stay zero; accessors below
// apply the conventional defaults.
type Host struct {
	Name         string // the literal name that was queried
	Hostname     string
	User         string
	Port         int
	IdentityFile string
	ProxyJump    string
}

// EffectiveHostname returns the configured hostname, or the queried
// name when no entry set one.
func (h *Host) EffectiveHostname() string {
	if h.Hostname != "" {
		return h.Hostname
	}
	return h.Name
}

// EffectivePort returns the configured port, defaulting to 22.
func (h *Host) EffectivePort() int {
	if h.Port != 0 {
		return h.Port
	}
	return DefaultPort
}

// Addr returns the "host:port" dial address for the host.
func (h *Host) Addr() string {
	return util.FormatAddr(h.EffectiveHostname(), h.EffectivePort())
}
