// dirhandle.go - handle-relative directory operations via the *at(2)
// syscall family. Every filesystem mutation and lookup in the walker
// goes through a dirHandle + leaf name pair rather than a reconstructed
// absolute path, so a rename above the walk root can never redirect an
// operation to the wrong file (TOCTOU-safety).
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
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// dirHandle wraps an open directory file descriptor. name is kept
// only for diagnostics.
type dirHandle struct {
	f    *os.File
	name string
}

// openRoot opens path as a directory handle; used for the three walk
// roots (source, destination, reference).
func openRoot(path string) (*dirHandle, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &dirHandle{f: os.NewFile(uintptr(fd), path), name: path}, nil
}

// openChild opens name as a subdirectory of d.
func (d *dirHandle) openChild(name string) (*dirHandle, error) {
	fd, err := unix.Openat(d.fd(), name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &dirHandle{f: os.NewFile(uintptr(fd), name), name: name}, nil
}

// openFile opens name (a regular file) relative to d, read-only.
func (d *dirHandle) openFile(name string) (*os.File, error) {
	fd, err := unix.Openat(d.fd(), name, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), name), nil
}

// createFile creates name relative to d for writing, failing if it
// already exists.
func (d *dirHandle) createFile(name string, mode fs.FileMode) (*os.File, error) {
	fd, err := unix.Openat(d.fd(), name, unix.O_CREAT|unix.O_EXCL|unix.O_WRONLY|unix.O_CLOEXEC, uint32(mode.Perm()))
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), name), nil
}

func (d *dirHandle) fd() int {
	return int(d.f.Fd())
}

func (d *dirHandle) close() error {
	return d.f.Close()
}

// readdirnames returns the child entry names, excluding "." and "..".
func (d *dirHandle) readdirnames() ([]string, error) {
	return d.f.Readdirnames(-1)
}

// statAt stats name relative to d without following a trailing
// symlink.
func (d *dirHandle) statAt(name string) (*rawStat, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(d.fd(), name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return nil, err
	}
	return statFromUnix(&st), nil
}

func (d *dirHandle) mkdirAt(name string, mode fs.FileMode) error {
	return unix.Mkdirat(d.fd(), name, unixMode(mode))
}

func (d *dirHandle) mknodAt(name string, mode fs.FileMode, dev uint64) error {
	return unix.Mknodat(d.fd(), name, modeToMknod(mode), int(dev))
}

func (d *dirHandle) symlinkAt(target, name string) error {
	return unix.Symlinkat(target, d.fd(), name)
}

func (d *dirHandle) readlinkAt(name string) (string, error) {
	buf := make([]byte, unix.PathMax)
	n, err := unix.Readlinkat(d.fd(), name, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (d *dirHandle) unlinkAt(name string) error {
	return unix.Unlinkat(d.fd(), name, 0)
}

// linkAt creates a new hard link at (dstDir, dstName) pointing at the
// same inode as (d, name).
func (d *dirHandle) linkAt(name string, dstDir *dirHandle, dstName string) error {
	return unix.Linkat(d.fd(), name, dstDir.fd(), dstName, 0)
}

func (d *dirHandle) chmodAt(name string, mode fs.FileMode) error {
	return unix.Fchmodat(d.fd(), name, unixMode(mode), 0)
}

func (d *dirHandle) chownAt(name string, uid, gid int) error {
	return unix.Fchownat(d.fd(), name, uid, gid, unix.AT_SYMLINK_NOFOLLOW)
}

// unixMode maps the low 12 bits of a fs.FileMode (permissions plus
// setuid/setgid/sticky) back to their chmod(2) representation.
func unixMode(mode fs.FileMode) uint32 {
	m := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		m |= unix.S_ISUID
	}
	if mode&fs.ModeSetgid != 0 {
		m |= unix.S_ISGID
	}
	if mode&fs.ModeSticky != 0 {
		m |= unix.S_ISVTX
	}
	return m
}

// modeToMknod folds the Go file-type bits for a device/fifo/socket
// entry into the S_IF* bits mknod(2) expects.
func modeToMknod(mode fs.FileMode) uint32 {
	perm := unixMode(mode)
	switch {
	case mode&fs.ModeNamedPipe != 0:
		return perm | unix.S_IFIFO
	case mode&fs.ModeSocket != 0:
		return perm | unix.S_IFSOCK
	case mode&fs.ModeCharDevice != 0:
		return perm | unix.S_IFCHR
	case mode&fs.ModeDevice != 0:
		return perm | unix.S_IFBLK
	default:
		return perm
	}
}
