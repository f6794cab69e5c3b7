// prefix.go -- collapse a list of directory paths to their longest,
// non-overlapping members.
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package clone

import (
	"sort"
	"strings"
)

// longestPrefixes takes a list of directory names and returns the subset
// that isn't a prefix (ancestor) of any other entry in the list, sorted
// -- eg "a" and "a/b" collapse to just "a/b". The dropped ancestor's
// other children are not covered by the deeper entry. Only this
// package's tests call it.
func longestPrefixes(dirs []string) []string {
	uniq := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		uniq[strings.TrimRight(d, "/")] = true
	}

	out := make([]string, 0, len(uniq))
outer:
	for d := range uniq {
		for o := range uniq {
			if o == d {
				continue
			}
			if strings.HasPrefix(o, d+"/") {
				// d is an ancestor of another entry; drop it
				continue outer
			}
		}
		out = append(out, d)
	}

	sort.Strings(out)
	return out
}
