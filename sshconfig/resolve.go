package sshconfig

import (
	skifferr "skiff/internal/errors"
)

// Resolve matches name against every entry in file order and merges
// the fields of matching entries into one Host.
//
// Merging is cumulative with first-set-wins: a field is populated by
// the first matching entry that itself set the field, and later
// matches never overwrite it.  The returned Host may still have unset
// fields; callers apply their own defaults via the Effective*
// accessors.  ErrNoMatchingHost is returned only when no entry
// matched at all.
func Resolve(entries []Entry, name string) (*Host, error) {
	h := &Host{Name: name}
	matched := false

	for i := range entries {
		e := &entries[i]
		if !e.matches(name) {
			continue
		}
		matched = true
		mergeEntry(h, e)
	}

	if !matched {
		return nil, skifferr.ErrNoMatchingHost
	}
	return h, nil
}

// mergeEntry copies each of e's set fields into h unless h already has
// a value for it.
func mergeEntry(h *Host, e *Entry) {
	if h.Hostname == "" {
		h.Hostname = e.Hostname
	}
	if h.User == "" {
		h.User = e.User
	}
	if h.Port == 0 {
		h.Port = e.Port
	}
	if h.IdentityFile == "" {
		h.IdentityFile = e.IdentityFile
	}
	if h.ProxyJump == "" {
		h.ProxyJump = e.ProxyJump
	}
}

// LiteralHosts returns, in file order, every pattern across every
// entry that contains neither '*' nor '?', each paired with its
// entry's fields.  Duplicates are preserved.  Interactive pickers use
// this to list the concrete, user-nameable hosts.
func LiteralHosts(entries []Entry) []Host {
	var hosts []Host
	for i := range entries {
		e := &entries[i]
		for _, p := range e.Patterns {
			if hasWildcard(p) {
				continue
			}
			hosts = append(hosts, Host{
				Name:         p,
				Hostname:     e.Hostname,
				User:         e.User,
				Port:         e.Port,
				IdentityFile: e.IdentityFile,
				ProxyJump:    e.ProxyJump,
			})
		}
	}
	return hosts
}
