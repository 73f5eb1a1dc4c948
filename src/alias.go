package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Map radio identifiers to human readable names.
 *
 * Description:	Identifiers are strings in whatever form the protocol
 *		uses, e.g. "200-1001" for an MPT1327 prefix and ident.
 *
 *		Entries may contain wildcards:
 *
 *			?	any one character
 *			*	anything at all, only at the end
 *
 *		An exact entry always wins.  Otherwise wildcard entries
 *		are tried from most specific to least specific, so
 *		"200-10*" would match 200-1001 before "200-*" gets a
 *		look in.
 *
 *------------------------------------------------------------------*/

import (
	"cmp"
	"slices"
	"strings"
)

type aliasPattern struct {
	pattern string
	alias   string
	literal int // Count of non-wildcard characters.
}

type AliasList struct {
	name      string
	exact     map[string]string
	wildcards []aliasPattern
}

func NewAliasList(name string, entries map[string]string) *AliasList {
	var a = &AliasList{name: name, exact: make(map[string]string)}

	for id, alias := range entries {
		if !strings.ContainsAny(id, "?*") {
			a.exact[id] = alias
			continue
		}

		// Anything after a '*' can never be reached.
		if i := strings.IndexByte(id, '*'); i >= 0 {
			id = id[:i+1]
		}

		a.wildcards = append(a.wildcards, aliasPattern{
			pattern: id,
			alias:   alias,
			literal: len(id) - strings.Count(id, "?") - strings.Count(id, "*"),
		})
	}

	// Most specific first.  Ties broken alphabetically so the order
	// doesn't depend on map iteration.
	slices.SortFunc(a.wildcards, func(x, y aliasPattern) int {
		var c = cmp.Compare(y.literal, x.literal)
		if c != 0 {
			return c
		}
		c = cmp.Compare(len(y.pattern), len(x.pattern))
		if c != 0 {
			return c
		}
		return strings.Compare(x.pattern, y.pattern)
	})

	return a
}

func (a *AliasList) Name() string {
	return a.name
}

func (a *AliasList) Len() int {
	return len(a.exact) + len(a.wildcards)
}

// Lookup finds the alias for id.
func (a *AliasList) Lookup(id string) (string, bool) {
	if a == nil {
		return "", false
	}

	if alias, ok := a.exact[id]; ok {
		return alias, true
	}

	for _, w := range a.wildcards {
		if wildcardMatch(w.pattern, id) {
			return w.alias, true
		}
	}

	return "", false
}

func wildcardMatch(pattern string, id string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' {
			return true
		}
		if i >= len(id) {
			return false
		}
		if pattern[i] != '?' && pattern[i] != id[i] {
			return false
		}
	}
	return len(pattern) == len(id)
}
