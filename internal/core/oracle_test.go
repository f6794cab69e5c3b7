// oracle_test.go - unit tests for content comparison and xattr staging.
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
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/pkg/xattr"
)

func openForCompare(t *testing.T, nm string) *os.File {
	f, err := os.Open(nm)
	if err != nil {
		t.Fatalf("open %s: %s", nm, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestContentEqual(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	a, b, c := filepath.Join(tmp, "a"), filepath.Join(tmp, "b"), filepath.Join(tmp, "c")
	assert(mkfilex(a, "the quick brown fox") == nil, "mkfile a")
	assert(mkfilex(b, "the quick brown fox") == nil, "mkfile b")
	assert(mkfilex(c, "the quick brown dog") == nil, "mkfile c")

	fa, fb, fc := openForCompare(t, a), openForCompare(t, b), openForCompare(t, c)

	st, err := fa.Stat()
	assert(err == nil, "stat a: %s", err)

	eq, err := contentEqual(fa, fb, st.Size())
	assert(err == nil, "contentEqual(a,b): %s", err)
	assert(eq, "a and b should compare equal")

	eq, err = contentEqual(fa, fc, st.Size())
	assert(err == nil, "contentEqual(a,c): %s", err)
	assert(!eq, "a and c should compare different")
}

func TestContentEqualEmpty(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	a, b := filepath.Join(tmp, "a"), filepath.Join(tmp, "b")
	assert(os.WriteFile(a, nil, 0600) == nil, "mkfile a")
	assert(os.WriteFile(b, nil, 0600) == nil, "mkfile b")

	fa, fb := openForCompare(t, a), openForCompare(t, b)
	eq, err := contentEqual(fa, fb, 0)
	assert(err == nil, "contentEqual: %s", err)
	assert(eq, "two empty files must compare equal")
}

// xattr support varies by filesystem; skip gracefully when the test
// tmpdir's fs doesn't support user.* attributes rather than failing.
func TestXattrStagerNamesEqual(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	a, b := filepath.Join(tmp, "a"), filepath.Join(tmp, "b")
	assert(mkfilex(a, "hello") == nil, "mkfile a")
	assert(mkfilex(b, "hello") == nil, "mkfile b")

	if err := xattr.Set(a, "user.tag", []byte("v1")); err != nil {
		if errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EOPNOTSUPP) {
			t.Skipf("xattr not supported on %s: %s", tmp, err)
		}
		t.Fatalf("setxattr a: %s", err)
	}
	assert(xattr.Set(b, "user.tag", []byte("v1")) == nil, "setxattr b")

	fa, fb := openForCompare(t, a), openForCompare(t, b)

	s := &xattrStager{}
	assert(s.list(0, fa) == nil, "list a")
	assert(s.list(1, fb) == nil, "list b")
	assert(s.namesEqual(), "name sets should match")

	veq, err := valuesEqual(fa, fb, s.arena[0].names)
	assert(err == nil, "valuesEqual: %s", err)
	assert(veq, "values should match")

	assert(xattr.Set(b, "user.tag", []byte("v2")) == nil, "setxattr b v2")
	veq, err = valuesEqual(fa, fb, s.arena[0].names)
	assert(err == nil, "valuesEqual: %s", err)
	assert(!veq, "values should now differ")
}
