// xattr.go - extended attribute staging for the equality oracle and
// for metadata transfer. Two scratch arenas (0 = source side, 1 =
// reference/destination side) hold the sorted name list for whichever
// file is currently being staged; the walker never stages more than
// one file per arena index at a time, so no locking is required.
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

//go:build linux

package core

import (
	"bytes"
	"os"
	"sort"

	"github.com/pkg/xattr"
)

type xattrArena struct {
	names []string
}

// xattrStager holds the two scratch arenas for the lifetime of a walk.
type xattrStager struct {
	arena [2]xattrArena
}

// list fills arena[idx] with the sorted attribute names of f.
func (s *xattrStager) list(idx int, f *os.File) error {
	names, err := xattr.FList(f)
	if err != nil {
		return err
	}
	sort.Strings(names)
	s.arena[idx].names = names
	return nil
}

// namesEqual reports whether the two most recently staged arenas hold
// the same set of attribute names.
func (s *xattrStager) namesEqual() bool {
	a, b := s.arena[0].names, s.arena[1].names
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// valuesEqual compares the value of every name in arena[0] between fa
// and fb. Callers must have already confirmed namesEqual().
func valuesEqual(fa, fb *os.File, names []string) (bool, error) {
	for _, name := range names {
		va, err := xattr.FGet(fa, name)
		if err != nil {
			return false, err
		}
		vb, err := xattr.FGet(fb, name)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(va, vb) {
			return false, nil
		}
	}
	return true, nil
}

// transferXattr copies every extended attribute from src onto dst.
// Per-name failures do not stop the transfer of the remaining
// attributes; only the first of them is returned.
func transferXattr(src, dst *os.File) error {
	names, err := xattr.FList(src)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		v, err := xattr.FGet(src, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := xattr.FSet(dst, name, v); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
