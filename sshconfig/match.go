package sshconfig

import "strings"

// Match reports whether pattern matches name.
//
// A pattern with no wildcards is an exact string comparison.  '*'
// matches any run of zero or more characters, '?' matches exactly one
// character, and every other character (including '.') matches
// literally.  A leading '!' inverts the result of the remaining
// pattern.  The match is anchored to the whole name; there are no
// partial matches.
func Match(pattern, name string) bool {
	if strings.HasPrefix(pattern, "!") {
		return !matchGlob(pattern[1:], name)
	}
	return matchGlob(pattern, name)
}

// hasWildcard reports whether p contains a glob metacharacter.
func hasWildcard(p string) bool {
	return strings.ContainsAny(p, "*?")
}

// matchGlob is an anchored segment-scanning matcher.  It walks the
// pattern and name with two cursors, remembering the position of the
// most recent '*' so literal mismatches after it can backtrack and
// let the star absorb one more character.
func matchGlob(pattern, name string) bool {
	var p, n int
	star, mark := -1, 0

	for n < len(name) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == name[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = n
			p++
		case star >= 0:
			// Mismatch after a star: widen the star by one character
			// and rescan from just past it.
			p = star + 1
			mark++
			n = mark
		default:
			return false
		}
	}

	// Only trailing stars may remain unconsumed.
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
