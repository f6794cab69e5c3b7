// content.go - byte-for-byte comparison of two regular files. Both
// sides are memory mapped read-only and compared in one pass; the
// mappings never outlive this call.
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
	"bytes"
	"os"

	"github.com/opencoff/go-mmap"
)

// contentEqual reports whether a and b (both already open, both of
// the given size) hold identical bytes. Zero-size files are equal
// without mapping anything.
func contentEqual(a, b *os.File, size int64) (bool, error) {
	if size == 0 {
		return true, nil
	}

	am := mmap.New(a)
	bm := mmap.New(b)

	amm, err := am.Map(-1, 0, mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		return false, err
	}
	defer amm.Unmap()

	bmm, err := bm.Map(-1, 0, mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		return false, err
	}
	defer bmm.Unmap()

	return bytes.Equal(amm.Bytes(), bmm.Bytes()), nil
}
