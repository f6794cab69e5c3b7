// walk.go - the tri-directory walker. Single-threaded, synchronous
// recursive descent over a source tree plus an optional destination
// tree (copy mode) or an optional reference tree (both modes). This
// is deliberately not concurrent: the decision to link-or-copy for one
// entry must be visible before its siblings and children are
// processed. The concurrent walk/cmp machinery behind hlverify and
// hlmirror has no such ordering constraint and stays out of this
// path.
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
	"errors"
	"io/fs"
	"os"

	"github.com/opencoff/go-logger"
)

// Options configures a single run of the core walker.
type Options struct {
	// NoXattr disables all xattr listing/compare/transfer.
	NoXattr bool

	// Verbose requests COPY/KEEP diagnostic lines.
	Verbose bool

	// Debug requests a per-entry decision trace.
	Debug bool

	// FailMask selects which classes of operation failure abort the
	// walk. The MUST class (root opendir, destination mkdir, symlink
	// creation, static-mode unlink, readdir errors) is always fatal
	// regardless of this value.
	FailMask FailClass

	// Log receives diagnostics; may be nil, in which case
	// diagnostics are discarded.
	Log logger.Logger
}

// Result summarizes the outcome of a walk.
type Result struct {
	Errors []error
}

type walker struct {
	opt    Options
	sink   *failSink
	xstage *xattrStager
	trail  pathTrail
	log    logger.Logger
	abort  bool
}

func newWalker(opt Options) *walker {
	w := &walker{
		opt:    opt,
		xstage: &xattrStager{},
		log:    opt.Log,
	}
	w.sink = newFailSink(opt.FailMask, w.report)
	return w
}

func (w *walker) report(e *Error) {
	if w.log != nil {
		w.log.Warn("ERROR: %s", e.Error())
	}
}

// fail reports a failed operation and, if its class is gated as fatal
// by the failure mask, marks the walk for abort. The walker never
// calls os.Exit itself: RunCopy/RunStatic surface the abort as an
// error once unwound, leaving the caller (the CLI) to choose the exit
// code.
func (w *walker) fail(class FailClass, op, path string, err error) {
	if w.sink.fail(class, op, path, err) {
		w.abort = true
	}
}

func (w *walker) debugf(format string, args ...any) {
	if w.opt.Debug && w.log != nil {
		w.log.Debug(format, args...)
	}
}

func (w *walker) verbosef(format string, args ...any) {
	if w.opt.Verbose && w.log != nil {
		w.log.Info(format, args...)
	}
}

// RunCopy implements the three-way copy mode: src is read, dst is
// created fresh, ref (optional) supplies dedup candidates.
func RunCopy(src, dst, ref string, opt Options) (*Result, error) {
	w := newWalker(opt)

	srcDir, err := openRoot(src)
	if err != nil {
		return nil, &Error{"opendir", src, err}
	}
	defer srcDir.close()

	srcRootSt, err := srcDir.statAt(".")
	if err != nil {
		return nil, &Error{"stat", src, err}
	}

	if err := mkdirAll(dst, srcRootSt.Mode); err != nil {
		return nil, &Error{"mkdir", dst, err}
	}

	dstDir, err := openRoot(dst)
	if err != nil {
		return nil, &Error{"opendir", dst, err}
	}
	defer dstDir.close()

	var refDir *dirHandle
	if ref != "" {
		refDir, err = openRoot(ref)
		if err != nil {
			return nil, &Error{"opendir", ref, err}
		}
		defer refDir.close()
	}

	w.walkCopy(srcDir, dstDir, refDir)

	if !w.abort {
		if err := transferMode(dstDir, ".", srcRootSt); err != nil {
			w.fail(FailChmod, "chmod", dst, err)
		}
		if err := transferOwner(dstDir, ".", srcRootSt); err != nil {
			w.fail(FailChown, "chown", dst, err)
		}
		if !opt.NoXattr {
			if err := transferXattr(srcDir.f, dstDir.f); err != nil {
				w.fail(FailXattr, "xattr", dst, err)
			}
		}
	}

	if w.abort {
		return nil, errAborted
	}
	return &Result{}, nil
}

// RunStatic implements static mode: dir is rewritten in place, with
// deduplicated regular files replaced by hard links into ref.
func RunStatic(dir, ref string, opt Options) (*Result, error) {
	w := newWalker(opt)

	srcDir, err := openRoot(dir)
	if err != nil {
		return nil, &Error{"opendir", dir, err}
	}
	defer srcDir.close()

	var refDir *dirHandle
	if ref != "" {
		refDir, err = openRoot(ref)
		if err != nil {
			return nil, &Error{"opendir", ref, err}
		}
		defer refDir.close()
	}

	w.walkStatic(srcDir, refDir)
	if w.abort {
		return nil, errAborted
	}
	return &Result{}, nil
}

// walkCopy processes one directory level in copy mode.
func (w *walker) walkCopy(srcDir, dstDir, refDir *dirHandle) {
	names, err := srcDir.readdirnames()
	if err != nil {
		w.fail(FailMust, "readdir", w.trail.String(), err)
		return
	}

	for _, name := range names {
		if w.abort {
			return
		}

		srcSt, err := srcDir.statAt(name)
		if err != nil {
			continue
		}

		v, diag := w.decide(srcDir, refDir, name, srcSt)
		w.debugf("%s/%s: uid=%d gid=%d mode=%s size=%d decision=%v diag=%#x", w.trail.String(), name, srcSt.Uid, srcSt.Gid, srcSt.Mode, srcSt.Size, v, diag)

		switch v {
		case verdictSameInode, verdictEqual:
			if err := refDir.linkAt(name, dstDir, name); err != nil {
				w.fail(FailHardlink, "link", w.trail.String()+"/"+name, err)
			}

		default:
			w.materializeCopy(srcDir, dstDir, refDir, name, srcSt)
		}
	}
}

// decide runs the prefilter and, for regular files with a candidate
// on the reference side, the full equality oracle.
func (w *walker) decide(srcDir, refDir *dirHandle, name string, srcSt *rawStat) (verdict, int) {
	if !srcSt.Mode.IsRegular() || refDir == nil {
		return verdictDifferent, 0
	}

	refSt, err := refDir.statAt(name)
	if err != nil {
		return verdictDifferent, 0
	}

	if !refSt.Mode.IsRegular() {
		return verdictDifferent, 0
	}
	if srcSt.Uid != refSt.Uid || srcSt.Gid != refSt.Gid || srcSt.Mode != refSt.Mode || srcSt.Size != refSt.Size {
		return verdictDifferent, 0
	}

	return w.compareRegular(srcDir, refDir, name, srcSt, refSt)
}

// materializeCopy recreates one "different" source entry at dst and
// transfers its metadata, recursing into directories.
func (w *walker) materializeCopy(srcDir, dstDir, refDir *dirHandle, name string, st *rawStat) {
	path := w.trail.String() + "/" + name

	switch {
	case st.Mode.IsRegular():
		if class, err := copyFile(srcDir, dstDir, name, st); err != nil {
			w.fail(class, "copy", path, err)
			return
		}
		w.verbosef("COPY %s", path)

	case st.Mode.IsDir():
		if err := recreateDirectory(dstDir, name, st.Mode); err != nil {
			w.fail(FailMust, "mkdir", path, err)
			return
		}

		childSrc, err := srcDir.openChild(name)
		if err != nil {
			w.fail(FailOpendir, "opendir", path, err)
			return
		}
		defer childSrc.close()

		childDst, err := dstDir.openChild(name)
		if err != nil {
			w.fail(FailOpendir, "opendir", path, err)
			return
		}
		defer childDst.close()

		var childRef *dirHandle
		if refDir != nil {
			if refSt, err := refDir.statAt(name); err == nil && refSt.Mode.IsDir() {
				childRef, _ = refDir.openChild(name)
			}
		}
		if childRef != nil {
			defer childRef.close()
		}

		frame := w.trail.push(name)
		w.walkCopy(childSrc, childDst, childRef)
		w.trail.pop(frame)

	case st.Mode&fs.ModeSymlink != 0:
		if class, err := recreateSymlink(srcDir, dstDir, name); err != nil {
			w.fail(class, "symlink", path, err)
			return
		}

	case st.Mode&fs.ModeDevice != 0, st.Mode&fs.ModeNamedPipe != 0, st.Mode&fs.ModeSocket != 0:
		if err := recreateNode(dstDir, name, st); err != nil {
			w.fail(FailMknod, "mknod", path, err)
			return
		}

	default:
		return
	}

	if w.abort {
		return
	}
	w.transferEntryMeta(srcDir, dstDir, name, st)
}

func (w *walker) transferEntryMeta(srcDir, dstDir *dirHandle, name string, st *rawStat) {
	path := w.trail.String() + "/" + name

	if err := transferMode(dstDir, name, st); err != nil {
		w.fail(FailChmod, "chmod", path, err)
	}
	if err := transferOwner(dstDir, name, st); err != nil {
		w.fail(FailChown, "chown", path, err)
	}

	if w.opt.NoXattr || !(st.Mode.IsRegular() || st.Mode.IsDir()) {
		return
	}

	var openAt func(*dirHandle, string) (*os.File, error) = (*dirHandle).openFile
	if st.Mode.IsDir() {
		openAt = func(d *dirHandle, n string) (*os.File, error) {
			h, err := d.openChild(n)
			if err != nil {
				return nil, err
			}
			return h.f, nil
		}
	}

	sf, err := openAt(srcDir, name)
	if err != nil {
		w.fail(FailXattr, "open-xattr-src", path, err)
		return
	}
	defer sf.Close()

	df, err := openAt(dstDir, name)
	if err != nil {
		w.fail(FailXattr, "open-xattr-dst", path, err)
		return
	}
	defer df.Close()

	if err := transferXattr(sf, df); err != nil {
		w.fail(FailXattr, "xattr", path, err)
	}
}

// walkStatic processes one directory level in static mode: src is
// rewritten in place using ref as the dedup source.
func (w *walker) walkStatic(srcDir, refDir *dirHandle) {
	names, err := srcDir.readdirnames()
	if err != nil {
		w.fail(FailMust, "readdir", w.trail.String(), err)
		return
	}

	for _, name := range names {
		if w.abort {
			return
		}

		srcSt, err := srcDir.statAt(name)
		if err != nil {
			continue
		}

		if srcSt.Mode.IsDir() {
			var childRef *dirHandle
			if refDir != nil {
				if refSt, err := refDir.statAt(name); err == nil && refSt.Mode.IsDir() {
					childRef, _ = refDir.openChild(name)
				}
			}

			childSrc, err := srcDir.openChild(name)
			if err != nil {
				w.fail(FailOpendir, "opendir", w.trail.String()+"/"+name, err)
				if childRef != nil {
					childRef.close()
				}
				continue
			}

			frame := w.trail.push(name)
			w.walkStatic(childSrc, childRef)
			w.trail.pop(frame)

			childSrc.close()
			if childRef != nil {
				childRef.close()
			}
			continue
		}

		if refDir == nil {
			if srcSt.Mode.IsRegular() {
				w.verbosef("KEEP %s/%s", w.trail.String(), name)
			}
			continue
		}

		v, diag := w.decide(srcDir, refDir, name, srcSt)
		path := w.trail.String() + "/" + name
		w.debugf("%s: uid=%d gid=%d mode=%s size=%d decision=%v diag=%#x", path, srcSt.Uid, srcSt.Gid, srcSt.Mode, srcSt.Size, v, diag)

		switch v {
		case verdictSameInode:
			// already the dedup target; nothing to do.
		case verdictEqual:
			if err := srcDir.unlinkAt(name); err != nil {
				w.fail(FailMust, "unlink", path, err)
				continue
			}
			if err := refDir.linkAt(name, srcDir, name); err != nil {
				w.fail(FailHardlink, "link", path, err)
			}
		default:
			if srcSt.Mode.IsRegular() {
				w.verbosef("KEEP %s", path)
			}
		}
	}
}

var errAlreadyExists = errors.New("destination already exists")

// errAborted is returned by RunCopy/RunStatic when a fatal operation
// failure (per the failure mask) terminated the walk early.
var errAborted = errors.New("walk aborted: fatal operation failure")
