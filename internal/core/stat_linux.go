// stat_linux.go - unix.Stat_t to rawStat for linux
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

	"golang.org/x/sys/unix"
)

// rawStat is the handle-relative equivalent of fio.Info: the fields
// the equality oracle and materializer need, gathered via fstatat(2)
// rather than a path-based stat.
type rawStat struct {
	Ino   uint64
	Size  int64
	Dev   uint64
	Rdev  uint64
	Mode  fs.FileMode
	Uid   uint32
	Gid   uint32
	Nlink uint32
}

func statFromUnix(st *unix.Stat_t) *rawStat {
	rs := &rawStat{
		Ino:   st.Ino,
		Size:  st.Size,
		Dev:   uint64(st.Dev),
		Rdev:  uint64(st.Rdev),
		Mode:  fs.FileMode(st.Mode & 0777),
		Uid:   st.Uid,
		Gid:   st.Gid,
		Nlink: uint32(st.Nlink),
	}

	switch st.Mode & unix.S_IFMT {
	case unix.S_IFBLK:
		rs.Mode |= fs.ModeDevice
	case unix.S_IFCHR:
		rs.Mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFDIR:
		rs.Mode |= fs.ModeDir
	case unix.S_IFIFO:
		rs.Mode |= fs.ModeNamedPipe
	case unix.S_IFLNK:
		rs.Mode |= fs.ModeSymlink
	case unix.S_IFSOCK:
		rs.Mode |= fs.ModeSocket
	}
	if st.Mode&unix.S_ISGID != 0 {
		rs.Mode |= fs.ModeSetgid
	}
	if st.Mode&unix.S_ISUID != 0 {
		rs.Mode |= fs.ModeSetuid
	}
	if st.Mode&unix.S_ISVTX != 0 {
		rs.Mode |= fs.ModeSticky
	}
	return rs
}

func (rs *rawStat) sameInode(other *rawStat) bool {
	return rs.Dev == other.Dev && rs.Ino == other.Ino
}
