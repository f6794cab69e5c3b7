// root.go - creation of the destination root in copy mode: parents
// are created as needed, but the destination leaf itself must not
// already exist.
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
)

// mkdirAll creates path and any missing parents, but fails with
// errAlreadyExists if path itself already exists -- the destination
// root in copy mode must be created fresh.
func mkdirAll(path string, mode fs.FileMode) error {
	if _, err := os.Lstat(path); err == nil {
		return errAlreadyExists
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(path, mode.Perm())
}

// IsAlreadyExists reports whether err is the sentinel returned when
// the copy-mode destination already exists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, errAlreadyExists)
}
