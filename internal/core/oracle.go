// oracle.go - the equality oracle: decides whether a source regular
// file and its reference counterpart are interchangeable (and thus
// the destination entry may be a hard link to the reference instead
// of an independent copy).
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

// diagnostic bits set by compareRegular when the verdict is
// "different", explaining why.
const (
	diagContentDiffers = 1 << 0
	diagXattrNames     = 1 << 1
	diagXattrValues    = 1 << 2
	diagIOError        = 1 << 3
)

// verdict is the outcome of the equality oracle for one src/ref pair.
type verdict int

const (
	verdictDifferent verdict = iota
	verdictEqual
	verdictSameInode
)

func (v verdict) String() string {
	switch v {
	case verdictEqual:
		return "LINK"
	case verdictSameInode:
		return "SAME"
	default:
		return "COPY"
	}
}

// compareRegular runs the same-inode -> content ->
// xattr chain for one entry shared by name between src and ref. Both
// stats must already be known to be regular files of equal size, uid,
// gid and mode -- the caller (the walker) performs that cheap check
// before opening anything.
func (w *walker) compareRegular(srcDir, refDir *dirHandle, name string, srcSt, refSt *rawStat) (verdict, int) {
	if srcSt.sameInode(refSt) {
		return verdictSameInode, 0
	}

	sf, err := srcDir.openFile(name)
	if err != nil {
		w.fail(FailDiff, "open", w.trail.String()+"/"+name, err)
		return verdictDifferent, diagIOError
	}
	defer sf.Close()

	rf, err := refDir.openFile(name)
	if err != nil {
		w.fail(FailDiff, "open", w.trail.String()+"/"+name, err)
		return verdictDifferent, diagIOError
	}
	defer rf.Close()

	diag := 0
	eq, err := contentEqual(sf, rf, srcSt.Size)
	if err != nil {
		w.fail(FailMmap, "mmap", w.trail.String()+"/"+name, err)
		diag |= diagIOError
	} else if !eq {
		diag |= diagContentDiffers
	}

	if !w.opt.NoXattr {
		if err := w.xstage.list(0, sf); err != nil {
			w.fail(FailXattr, "listxattr", w.trail.String()+"/"+name, err)
			diag |= diagIOError
		} else if err := w.xstage.list(1, rf); err != nil {
			w.fail(FailXattr, "listxattr", w.trail.String()+"/"+name, err)
			diag |= diagIOError
		} else if !w.xstage.namesEqual() {
			diag |= diagXattrNames
		} else {
			veq, err := valuesEqual(sf, rf, w.xstage.arena[0].names)
			if err != nil {
				w.fail(FailXattr, "getxattr", w.trail.String()+"/"+name, err)
				diag |= diagIOError
			} else if !veq {
				diag |= diagXattrValues
			}
		}
	}

	if diag != 0 {
		return verdictDifferent, diag
	}
	return verdictEqual, 0
}
