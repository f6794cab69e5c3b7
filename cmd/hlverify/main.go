// main.go -- hlverify: post-hoc, read-only, concurrent verification
// that a materialized destination tree really did dedup against its
// reference (every unchanged regular file shares an inode with its
// reference counterpart).
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

package main

import (
	"fmt"
	"os"
	"path"

	"github.com/opencoff/hlink/cmp"
	flag "github.com/opencoff/pflag"
)

var z = path.Base(os.Args[0])

func main() {
	var help bool

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.BoolVarP(&help, "help", "h", false, "Show help and exit")
	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}

	if help {
		fmt.Printf("%s - verify a materialized tree dedup'd against its reference\n\nUsage: %s <destination> <reference>\n\n", z, z)
		fs.PrintDefaults()
		os.Exit(0)
	}

	args := fs.Args()
	if len(args) != 2 {
		die("Usage: %s <destination> <reference>", z)
	}

	dst, ref := args[0], args[1]

	diff, err := cmp.DirTree(dst, ref,
		cmp.WithIgnoreAttr(cmp.IGN_DEDUP),
		cmp.WithHardlinkVerify())
	if err != nil {
		die("%s", err)
	}

	n := 0
	diff.Unlinked.Range(func(nm string, p cmp.Pair) bool {
		n++
		fmt.Printf("NOT-LINKED %s: dst ino %d, ref ino %d\n", nm, p.Src.Ino, p.Dst.Ino)
		return true
	})

	if n > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d entries failed to dedup\n", z, n)
		os.Exit(1)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", z, fmt.Sprintf(format, args...))
	os.Exit(1)
}
