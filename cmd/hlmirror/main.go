// main.go -- hlmirror: bootstrap a fresh reference tree from an
// arbitrary source, with no dedup against anything. Used to seed the
// very first snapshot before hlink has a reference tree to work from.
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
	"runtime"

	"github.com/opencoff/hlink/clone"
	flag "github.com/opencoff/pflag"
)

var z = path.Base(os.Args[0])

func main() {
	var ncpu int
	var onefs, help bool

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.IntVarP(&ncpu, "concurrency", "c", runtime.NumCPU(), "Use upto `N` goroutines")
	fs.BoolVarP(&onefs, "one-file-system", "x", false, "Don't cross filesystem boundaries")
	fs.BoolVarP(&help, "help", "h", false, "Show help and exit")
	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}

	if help {
		fmt.Printf("%s - bootstrap a reference tree\n\nUsage: %s [options] <source>... <destination>\n\n", z, z)
		fs.PrintDefaults()
		os.Exit(0)
	}

	args := fs.Args()
	if len(args) < 2 {
		die("Usage: %s [options] <source>... <destination>", z)
	}

	srcs, dst := args[:len(args)-1], args[len(args)-1]
	opt := clone.MirrorOpt{Concurrency: ncpu, OneFS: onefs}
	if err := clone.MirrorAll(dst, srcs, opt); err != nil {
		die("%s", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", z, fmt.Sprintf(format, args...))
	os.Exit(1)
}
