// mknod_unixish.go -- mknod(2) for linux & darwin
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

//go:build linux || darwin

package clone

import (
	"io/fs"
	"syscall"

	"github.com/opencoff/hlink"
)

// mknod recreates a device node or named pipe at dst with the
// source's permission bits and device number. The Go file-type bits
// must be folded back into the S_IF* form mknod(2) expects; the raw
// st_mode is not preserved in fio.Info.
func mknod(dst string, fi *fio.Info) error {
	mode := uint32(fi.Mode().Perm())
	switch {
	case fi.Mode()&fs.ModeNamedPipe != 0:
		mode |= syscall.S_IFIFO
	case fi.Mode()&fs.ModeCharDevice != 0:
		mode |= syscall.S_IFCHR
	case fi.Mode()&fs.ModeDevice != 0:
		mode |= syscall.S_IFBLK
	}

	if err := syscall.Mknod(dst, mode, int(fi.Rdev)); err != nil {
		return &Error{"mknod", fi.Path(), dst, err}
	}
	return nil
}
