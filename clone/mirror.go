// mirror.go -- concurrent, non-deduplicating bootstrap copy of a tree.
// Used by cmd/hlmirror to seed the very first reference tree, before
// any snapshot exists for the core tri-walker to dedup against.
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
	"os"
	"path/filepath"

	"github.com/opencoff/hlink"
	"github.com/opencoff/hlink/walk"
)

// MirrorOpt controls a Mirror/MirrorAll run.
type MirrorOpt struct {
	// Concurrency is the number of copy workers; <= 0 means one
	// per CPU.
	Concurrency int

	// OneFS stops the walk at filesystem boundaries. A snapshot
	// tree that is later dedup'd against lives on one filesystem
	// anyway (hard links can't cross it), so a mirror seeding such
	// a tree usually wants this.
	OneFS bool
}

// Mirror concurrently copies every entry of src into dst, preserving
// the source's own internal hard-link groups (a file with Nlink > 1
// in src becomes a hard-link group of the same shape in dst, rather
// than N independent copies). It does not consult any reference tree;
// callers that want the tri-walker's deduplication should use the
// core package instead, once dst exists as a prior snapshot.
func Mirror(dst, src string, opt MirrorOpt) error {
	return MirrorAll(dst, []string{src}, opt)
}

// MirrorAll is Mirror generalized to multiple, independent source
// roots merged into a single destination tree -- each root's entries
// land at dst joined with that entry's path relative to its own root.
// Roots are expected not to nest inside one another; nesting isn't
// collapsed here (longestPrefixes keeps only the deepest of a nested
// pair and would silently drop the shallower root's other children,
// which is wrong for a copy-everything operation -- see clone/prefix.go
// and its own tests for where that collapsing rule does apply).
func MirrorAll(dst string, srcs []string, opt MirrorOpt) error {
	h := newHardlinker()

	pool := fio.NewWorkPool[*fio.Info](opt.Concurrency, func(_ int, fi *fio.Info) error {
		root := ""
		for _, s := range srcs {
			if (fi.Path() == s || hasDirPrefix(fi.Path(), s)) && len(s) > len(root) {
				root = s
			}
		}
		rel, err := filepath.Rel(root, fi.Path())
		if err != nil {
			return &Error{"relpath", fi.Path(), dst, err}
		}
		d := filepath.Join(dst, rel)

		if h.track(fi, d) {
			return nil
		}
		return File(d, fi.Path())
	})

	// bound unix sockets can't be recreated by a copy; everything
	// else mknod/symlink/copy handles.
	wo := walk.Options{
		Concurrency: opt.Concurrency,
		Type:        walk.ALL &^ walk.SOCK,
		OneFS:       opt.OneFS,
	}
	werr := walk.WalkFunc(srcs, wo, func(fi *fio.Info) error {
		pool.Submit(fi)
		return nil
	})

	pool.Close()
	perr := pool.Wait()

	if werr != nil {
		return werr
	}
	if perr != nil {
		return perr
	}

	var linkErr error
	h.hardlinks(func(newdst, origdst string) {
		if linkErr != nil {
			return
		}
		if err := os.Link(origdst, newdst); err != nil {
			linkErr = &Error{"link", origdst, newdst, err}
		}
	})
	return linkErr
}

func hasDirPrefix(p, dir string) bool {
	return len(p) > len(dir) && p[len(dir)] == filepath.Separator && p[:len(dir)] == dir
}
