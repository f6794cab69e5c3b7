// cmp_test.go -- test harness for DirTree
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

package cmp_test

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opencoff/hlink"
	"github.com/opencoff/hlink/cmp"
)

var testDir = flag.String("testdir", "", "Use 'T' as the testdir for file I/O tests")

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("\n%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

func getTmpdir(t *testing.T) string {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	if len(*testDir) > 0 {
		tmpdir = filepath.Join(*testDir, t.Name())
		err := os.MkdirAll(tmpdir, 0700)
		assert(err == nil, "mkdir %s: %s", tmpdir, err)
		t.Cleanup(func() {
			os.RemoveAll(tmpdir)
		})
	}
	return tmpdir
}

func mkfile(nm string) error {
	bn := filepath.Dir(nm)
	if err := os.MkdirAll(bn, 0700); err != nil {
		return fmt.Errorf("mkdir: %s: %w", bn, err)
	}

	fd, err := os.OpenFile(nm, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creat: %s: %w", nm, err)
	}

	fd.Write([]byte("hello"))
	fd.Sync()
	return fd.Close()
}

func fioMapLen(m *cmp.FioMap) int {
	n := 0
	m.Range(func(string, *fio.Info) bool {
		n++
		return true
	})
	return n
}

func fioPairMapLen(m *cmp.FioPairMap) int {
	n := 0
	m.Range(func(string, cmp.Pair) bool {
		n++
		return true
	})
	return n
}

func TestDirTreeEmpty(t *testing.T) {
	assert := newAsserter(t)
	tmp := getTmpdir(t)

	lhs := filepath.Join(tmp, "lhs")
	rhs := filepath.Join(tmp, "rhs")
	assert(os.MkdirAll(lhs, 0700) == nil, "mkdir lhs")
	assert(os.MkdirAll(rhs, 0700) == nil, "mkdir rhs")

	d, err := cmp.DirTree(lhs, rhs)
	assert(err == nil, "dirtree: %s", err)
	assert(d != nil, "diff is nil")

	assert(fioMapLen(d.LeftFiles) == 0, "leftfiles: %d", fioMapLen(d.LeftFiles))
	assert(fioMapLen(d.RightFiles) == 0, "rightfiles: %d", fioMapLen(d.RightFiles))
	assert(fioPairMapLen(d.Diff) == 0, "diff: %d", fioPairMapLen(d.Diff))
	assert(fioPairMapLen(d.Funny) == 0, "funny: %d", fioPairMapLen(d.Funny))
}

func TestDirTreeLeftOnly(t *testing.T) {
	assert := newAsserter(t)
	tmp := getTmpdir(t)

	lhs := filepath.Join(tmp, "lhs")
	rhs := filepath.Join(tmp, "rhs")
	assert(os.MkdirAll(rhs, 0700) == nil, "mkdir rhs")

	files := []string{"a/0", "a/1", "a/b/2"}
	for _, f := range files {
		assert(mkfile(filepath.Join(lhs, f)) == nil, "mkfile %s", f)
	}

	d, err := cmp.DirTree(lhs, rhs)
	assert(err == nil, "dirtree: %s", err)
	assert(fioMapLen(d.LeftFiles) == len(files), "leftfiles: exp %d, saw %d", len(files), fioMapLen(d.LeftFiles))
	assert(fioMapLen(d.RightFiles) == 0, "rightfiles: %d", fioMapLen(d.RightFiles))
}

func TestDirTreeCommonAndDiff(t *testing.T) {
	assert := newAsserter(t)
	tmp := getTmpdir(t)

	lhs := filepath.Join(tmp, "lhs")
	rhs := filepath.Join(tmp, "rhs")

	assert(mkfile(filepath.Join(lhs, "same")) == nil, "mkfile same/lhs")
	assert(mkfile(filepath.Join(rhs, "same")) == nil, "mkfile same/rhs")

	assert(mkfile(filepath.Join(lhs, "big")) == nil, "mkfile big/lhs")
	big, err := os.OpenFile(filepath.Join(rhs, "big"), os.O_CREATE|os.O_WRONLY, 0600)
	assert(err == nil, "creat big/rhs: %s", err)
	_, err = big.Write([]byte("hello world, a longer file"))
	assert(err == nil, "write big/rhs: %s", err)
	assert(big.Close() == nil, "close big/rhs")

	d, err := cmp.DirTree(lhs, rhs, cmp.WithIgnoreAttr(cmp.IGN_UID|cmp.IGN_GID|cmp.IGN_XATTR|cmp.IGN_DEDUP))
	assert(err == nil, "dirtree: %s", err)

	assert(fioPairMapLen(d.Diff) == 1, "diff: exp 1, saw %d", fioPairMapLen(d.Diff))
	_, ok := d.Diff.Load("big")
	assert(ok, "expected 'big' in diff set")

	assert(fioPairMapLen(d.CommonFiles) == 1, "common: exp 1, saw %d", fioPairMapLen(d.CommonFiles))
	_, ok = d.CommonFiles.Load("same")
	assert(ok, "expected 'same' in common set")
}

func TestHardlinkVerify(t *testing.T) {
	assert := newAsserter(t)
	tmp := getTmpdir(t)

	lhs := filepath.Join(tmp, "lhs")
	rhs := filepath.Join(tmp, "rhs")

	// "linked" shares an inode across the trees; "copied" is an
	// independent file with the same content.
	assert(mkfile(filepath.Join(lhs, "linked")) == nil, "mkfile linked/lhs")
	assert(os.MkdirAll(rhs, 0700) == nil, "mkdir rhs")
	assert(os.Link(filepath.Join(lhs, "linked"), filepath.Join(rhs, "linked")) == nil, "link linked/rhs")

	assert(mkfile(filepath.Join(lhs, "copied")) == nil, "mkfile copied/lhs")
	assert(mkfile(filepath.Join(rhs, "copied")) == nil, "mkfile copied/rhs")

	d, err := cmp.DirTree(lhs, rhs,
		cmp.WithIgnoreAttr(cmp.IGN_DEDUP),
		cmp.WithHardlinkVerify())
	assert(err == nil, "dirtree: %s", err)

	assert(fioPairMapLen(d.Unlinked) == 1, "unlinked: exp 1, saw %d", fioPairMapLen(d.Unlinked))
	_, ok := d.Unlinked.Load("copied")
	assert(ok, "expected 'copied' in unlinked set")
	_, ok = d.Unlinked.Load("linked")
	assert(!ok, "'linked' shares an inode and must not be flagged")
}
