package core

import (
	"fmt"

	"skiff/sshconfig"
)

// BuildRoute resolves name and every bastion its entries reference,
// returning the hop chain ordered outermost bastion first, target
// last.  A direct connection yields a single-hop route.
//
// Bastions may themselves name bastions; a ProxyJump reference that
// loops back on itself is an error rather than an infinite chain.
func BuildRoute(entries []sshconfig.Entry, name string) ([]*sshconfig.Host, error) {
	seen := make(map[string]bool)
	var chain []*sshconfig.Host // target first while walking

	cur := name
	for {
		if seen[cur] {
			return nil, fmt.Errorf("proxy jump cycle through %q", cur)
		}
		seen[cur] = true

		h, err := sshconfig.Resolve(entries, cur)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", cur, err)
		}
		chain = append(chain, h)

		if h.ProxyJump == "" {
			break
		}
		cur = h.ProxyJump
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
