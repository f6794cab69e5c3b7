// meta_nop.go -- metadata updates for unsupported systems
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

//go:build !unix

package clone

import (
	"fmt"

	"github.com/opencoff/hlink"
)

var errNotSupported = fmt.Errorf("not supported on this platform")

func clonetimes(dst string, fi *fio.Info) error {
	return &Error{"clonetimes", fi.Path(), dst, errNotSupported}
}

func mknod(dst string, fi *fio.Info) error {
	return &Error{"mknod", fi.Path(), dst, errNotSupported}
}

// clone a symlink - ie we make the target point to the same one as src
func clonelink(dst string, src string, fi *fio.Info) error {
	return &Error{"clonelink", src, dst, errNotSupported}
}
