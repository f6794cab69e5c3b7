// errno_linux.go - small errno helpers used to recognize benign
// "already exists" races on mkdir.
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

import "golang.org/x/sys/unix"

const errExist = unix.EEXIST

func asErrno(err error) (unix.Errno, bool) {
	errno, ok := err.(unix.Errno)
	return errno, ok
}
