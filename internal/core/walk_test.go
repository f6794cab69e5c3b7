// walk_test.go - end-to-end tests for the tri-walker
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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"

	"github.com/pkg/xattr"
)

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

func mkfilex(nm string, content string) error {
	if err := os.MkdirAll(filepath.Dir(nm), 0700); err != nil {
		return err
	}
	return os.WriteFile(nm, []byte(content), 0600)
}

func sameInode(t *testing.T, a, b string) bool {
	sa, err := os.Lstat(a)
	if err != nil {
		t.Fatalf("lstat %s: %s", a, err)
	}
	sb, err := os.Lstat(b)
	if err != nil {
		t.Fatalf("lstat %s: %s", b, err)
	}
	return os.SameFile(sa, sb)
}

// scenario 1: identical content and metadata -> hard-linked
func TestCopyModeHardlink(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst, ref := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst"), filepath.Join(tmp, "ref")
	assert(mkfilex(filepath.Join(src, "a"), "hello") == nil, "mkfile src/a")
	assert(mkfilex(filepath.Join(ref, "a"), "hello") == nil, "mkfile ref/a")

	// align mode/uid/gid so the prefilter passes
	assert(os.Chmod(filepath.Join(src, "a"), 0644) == nil, "chmod src/a")
	assert(os.Chmod(filepath.Join(ref, "a"), 0644) == nil, "chmod ref/a")

	_, err := RunCopy(src, dst, ref, Options{NoXattr: true})
	assert(err == nil, "runcopy: %s", err)

	assert(sameInode(t, filepath.Join(dst, "a"), filepath.Join(ref, "a")), "dst/a and ref/a should share an inode")
}

// scenario 2: differing content -> independent copy, distinct inode
func TestCopyModeDiffers(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst, ref := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst"), filepath.Join(tmp, "ref")
	assert(mkfilex(filepath.Join(src, "a"), "hello") == nil, "mkfile src/a")
	assert(mkfilex(filepath.Join(ref, "a"), "world") == nil, "mkfile ref/a")
	assert(os.Chmod(filepath.Join(src, "a"), 0644) == nil, "chmod src/a")
	assert(os.Chmod(filepath.Join(ref, "a"), 0644) == nil, "chmod ref/a")

	_, err := RunCopy(src, dst, ref, Options{NoXattr: true})
	assert(err == nil, "runcopy: %s", err)

	assert(!sameInode(t, filepath.Join(dst, "a"), filepath.Join(ref, "a")), "dst/a must NOT share an inode with ref/a")

	b, err := os.ReadFile(filepath.Join(dst, "a"))
	assert(err == nil, "read dst/a: %s", err)
	assert(string(b) == "hello", "dst/a content: exp hello, saw %s", string(b))
}

// boundary: empty source directory produces an empty destination directory
func TestCopyModeEmptyDir(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst")
	assert(os.MkdirAll(filepath.Join(src, "sub"), 0755) == nil, "mkdir src/sub")

	_, err := RunCopy(src, dst, "", Options{NoXattr: true})
	assert(err == nil, "runcopy: %s", err)

	fi, err := os.Stat(filepath.Join(dst, "sub"))
	assert(err == nil, "stat dst/sub: %s", err)
	assert(fi.IsDir(), "dst/sub should be a directory")
}

// boundary: symlinks are recreated, not followed
func TestCopyModeSymlink(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst")
	assert(os.MkdirAll(src, 0755) == nil, "mkdir src")
	assert(os.Symlink("target-does-not-exist", filepath.Join(src, "link")) == nil, "symlink")

	_, err := RunCopy(src, dst, "", Options{NoXattr: true})
	assert(err == nil, "runcopy: %s", err)

	targ, err := os.Readlink(filepath.Join(dst, "link"))
	assert(err == nil, "readlink dst/link: %s", err)
	assert(targ == "target-does-not-exist", "symlink target: exp 'target-does-not-exist', saw %s", targ)
}

// copy mode destination must not already exist
func TestCopyModeDestExists(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst")
	assert(mkfilex(filepath.Join(src, "a"), "hello") == nil, "mkfile src/a")
	assert(os.MkdirAll(dst, 0755) == nil, "mkdir dst")

	_, err := RunCopy(src, dst, "", Options{NoXattr: true})
	assert(err != nil, "runcopy: expected error for existing destination")
	assert(IsAlreadyExists(err), "expected IsAlreadyExists, saw %s", err)
}

// scenario 4: directories are recreated, never hard-linked; their
// unchanged children still link into the reference
func TestCopyModeNestedDirLink(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, dst, ref := filepath.Join(tmp, "src"), filepath.Join(tmp, "dst"), filepath.Join(tmp, "ref")
	assert(mkfilex(filepath.Join(src, "dir", "b"), "b") == nil, "mkfile src/dir/b")
	assert(mkfilex(filepath.Join(ref, "dir", "b"), "b") == nil, "mkfile ref/dir/b")
	assert(os.Chmod(filepath.Join(src, "dir", "b"), 0644) == nil, "chmod src/dir/b")
	assert(os.Chmod(filepath.Join(ref, "dir", "b"), 0644) == nil, "chmod ref/dir/b")

	_, err := RunCopy(src, dst, ref, Options{NoXattr: true})
	assert(err == nil, "runcopy: %s", err)

	fi, err := os.Lstat(filepath.Join(dst, "dir"))
	assert(err == nil, "lstat dst/dir: %s", err)
	assert(fi.IsDir(), "dst/dir should be a directory")
	assert(!sameInode(t, filepath.Join(dst, "dir"), filepath.Join(ref, "dir")), "dst/dir must be a fresh directory, not a link")
	assert(sameInode(t, filepath.Join(dst, "dir", "b"), filepath.Join(ref, "dir", "b")), "dst/dir/b should hard-link to ref/dir/b")
}

// scenario 3: a differing xattr value forces a copy unless xattr
// handling is disabled
func TestCopyModeXattrDifference(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	src, ref := filepath.Join(tmp, "src"), filepath.Join(tmp, "ref")
	assert(mkfilex(filepath.Join(src, "a"), "x") == nil, "mkfile src/a")
	assert(mkfilex(filepath.Join(ref, "a"), "x") == nil, "mkfile ref/a")
	assert(os.Chmod(filepath.Join(src, "a"), 0644) == nil, "chmod src/a")
	assert(os.Chmod(filepath.Join(ref, "a"), 0644) == nil, "chmod ref/a")

	if err := xattr.Set(filepath.Join(src, "a"), "user.k", []byte("v1")); err != nil {
		if errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EOPNOTSUPP) {
			t.Skipf("xattr not supported on %s: %s", tmp, err)
		}
		t.Fatalf("setxattr src/a: %s", err)
	}
	assert(xattr.Set(filepath.Join(ref, "a"), "user.k", []byte("v2")) == nil, "setxattr ref/a")

	dst := filepath.Join(tmp, "dst")
	_, err := RunCopy(src, dst, ref, Options{})
	assert(err == nil, "runcopy: %s", err)
	assert(!sameInode(t, filepath.Join(dst, "a"), filepath.Join(ref, "a")), "differing xattr value must force a copy")

	dst2 := filepath.Join(tmp, "dst2")
	_, err = RunCopy(src, dst2, ref, Options{NoXattr: true})
	assert(err == nil, "runcopy-noxattr: %s", err)
	assert(sameInode(t, filepath.Join(dst2, "a"), filepath.Join(ref, "a")), "with xattrs disabled the files should hard-link")
}

// scenario 5/6: static mode dedups in place and is idempotent
func TestStaticModeDedup(t *testing.T) {
	assert := newAsserter(t)
	tmp := t.TempDir()

	dir, ref := filepath.Join(tmp, "dir"), filepath.Join(tmp, "ref")
	assert(mkfilex(filepath.Join(dir, "a"), "hello") == nil, "mkfile dir/a")
	assert(mkfilex(filepath.Join(ref, "a"), "hello") == nil, "mkfile ref/a")
	assert(os.Chmod(filepath.Join(dir, "a"), 0644) == nil, "chmod dir/a")
	assert(os.Chmod(filepath.Join(ref, "a"), 0644) == nil, "chmod ref/a")

	_, err := RunStatic(dir, ref, Options{NoXattr: true})
	assert(err == nil, "runstatic: %s", err)
	assert(sameInode(t, filepath.Join(dir, "a"), filepath.Join(ref, "a")), "dir/a should now share an inode with ref/a")

	// running again must be a no-op (already same-inode path)
	_, err = RunStatic(dir, ref, Options{NoXattr: true})
	assert(err == nil, "runstatic(2): %s", err)
	assert(sameInode(t, filepath.Join(dir, "a"), filepath.Join(ref, "a")), "dir/a should still share an inode with ref/a")
}
