// materialize.go - recreates a single source entry at a destination:
// copy a regular file, recreate a symlink, recreate a device/fifo/
// socket node, recreate a directory, and transfer mode/ownership/
// xattrs onto whatever was created.
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

	"github.com/opencoff/go-mmap"
)

// copyFile creates name in dstDir with the bytes of name in srcDir,
// mapping the source read-only and writing the mapping out in one
// pass. The returned class tells the caller which failure class the
// error belongs to (creat for destination creation, mmap for the
// mapping, copy for everything else).
func copyFile(srcDir, dstDir *dirHandle, name string, st *rawStat) (FailClass, error) {
	sf, err := srcDir.openFile(name)
	if err != nil {
		return FailCopy, err
	}
	defer sf.Close()

	df, err := dstDir.createFile(name, st.Mode)
	if err != nil {
		return FailCreat, err
	}
	defer df.Close()

	if st.Size == 0 {
		return 0, nil
	}

	var werr error
	_, err = mmap.Reader(sf, func(b []byte) error {
		werr = fullWrite(df, b)
		return werr
	})
	if werr != nil {
		return FailCopy, werr
	}
	if err != nil {
		return FailMmap, err
	}
	return 0, nil
}

// fullWrite writes all of b to f, looping over short writes.
func fullWrite(f *os.File, b []byte) error {
	for len(b) > 0 {
		n, err := f.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// recreateSymlink reads the link target relative to srcDir and
// creates an identical symlink in dstDir. A readlink failure is
// gated by its own class; a failure to create the link itself is
// always fatal.
func recreateSymlink(srcDir, dstDir *dirHandle, name string) (FailClass, error) {
	targ, err := srcDir.readlinkAt(name)
	if err != nil {
		return FailReadlink, err
	}
	if err := dstDir.symlinkAt(targ, name); err != nil {
		return FailMust, err
	}
	return 0, nil
}

// recreateNode creates a device, fifo or socket node matching st.
func recreateNode(dstDir *dirHandle, name string, st *rawStat) error {
	return dstDir.mknodAt(name, st.Mode, st.Rdev)
}

// recreateDirectory is an idempotent mkdir: an existing directory at
// name is not an error. The directory is created with the source's
// exact low 12 mode bits; a source directory lacking owner-execute
// will fail the subsequent opendir for recursion, just as it would
// have been unreadable at the source.
func recreateDirectory(dstDir *dirHandle, name string, mode fs.FileMode) error {
	if err := dstDir.mkdirAt(name, mode); err != nil {
		if pe, ok := asErrno(err); ok && pe == errExist {
			return nil
		}
		return err
	}
	return nil
}

// transferMode applies the low 12 bits of st.Mode, skipped for
// symlinks (chmod on a symlink changes the target on Linux, which is
// never the intent here).
func transferMode(dstDir *dirHandle, name string, st *rawStat) error {
	if st.Mode&fs.ModeSymlink != 0 {
		return nil
	}
	return dstDir.chmodAt(name, st.Mode)
}

// transferOwner applies uid/gid without following a trailing symlink.
func transferOwner(dstDir *dirHandle, name string, st *rawStat) error {
	return dstDir.chownAt(name, int(st.Uid), int(st.Gid))
}
