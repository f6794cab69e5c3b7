// meta_unix.go -- set file times for unixish platforms
//
// (c) 2021 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

//go:build unix

package clone

import (
	"os"

	"github.com/opencoff/hlink"
)

// clone a symlink - ie we make the target point to the same one as src
func clonelink(dst string, src string, fi *fio.Info) error {
	targ, err := os.Readlink(src)
	if err != nil {
		return &Error{"readlink", src, dst, err}
	}
	if err = os.Symlink(targ, dst); err != nil {
		return &Error{"symlink", src, dst, err}
	}

	return nil
}

// clonetimes transfers atime/mtime from the source metadata onto dst.
// Symlinks don't carry meaningful mtimes of their own making and are
// left untouched.
func clonetimes(dst string, fi *fio.Info) error {
	if fi.Mode().Type() == os.ModeSymlink {
		return nil
	}

	if err := os.Chtimes(dst, fi.Atim, fi.Mtim); err != nil {
		return &Error{"clonetimes", fi.Path(), dst, err}
	}
	return nil
}
