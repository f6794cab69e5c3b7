// main.go -- hlink: deduplicating tree replicator
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
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"strconv"

	"github.com/opencoff/go-logger"
	"github.com/opencoff/hlink/internal/core"
	flag "github.com/opencoff/pflag"
)

var z = path.Base(os.Args[0])

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args and executes one replication; its return value is
// the process exit code (0 success, 1 fatal operation failure, 3
// missing source or pre-existing destination).
func run(args []string) int {
	var noxattr, static, debug, verbose, help bool
	var failStr string

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.BoolVar(&noxattr, "noxattr", false, "Disable extended-attribute compare and transfer")
	fs.BoolVar(&static, "static", false, "Rewrite the source tree in place instead of creating a destination")
	fs.BoolVar(&debug, "debug", false, "Emit a per-entry decision trace")
	fs.BoolVar(&verbose, "verbose", false, "Emit COPY lines for copied regular files and KEEP lines for regular files left as-is")
	fs.StringVar(&failStr, "fail", "0", "Failure class bitmask (decimal or 0x hex) that aborts the run")
	fs.BoolVarP(&help, "help", "h", false, "Show help and exit")
	fs.SetOutput(os.Stdout)

	if err := fs.Parse(args); err != nil {
		return warn(3, "%s", err)
	}

	if help {
		usage(fs)
		return 0
	}

	mask, err := parseFailMask(failStr)
	if err != nil {
		return warn(3, "-fail: %s", err)
	}

	lvl := logger.LOG_INFO
	if debug {
		lvl = logger.LOG_DEBUG
	}
	log, err := logger.NewLogger("-", lvl, z, 0)
	if err != nil {
		return warn(3, "logger: %s", err)
	}

	opt := core.Options{
		NoXattr:  noxattr,
		Verbose:  verbose,
		Debug:    debug,
		FailMask: mask,
		Log:      log,
	}

	pos := fs.Args()

	if static {
		if len(pos) < 1 || len(pos) > 2 {
			usage(fs)
			return warn(3, "static mode needs: <directory> [reference]")
		}
		dir := pos[0]
		ref := ""
		if len(pos) == 2 {
			ref = refOrEmpty(pos[1])
		}
		if _, err := core.RunStatic(dir, ref, opt); err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return warn(3, "%s", err)
			}
			return warn(1, "%s", err)
		}
		return 0
	}

	if len(pos) != 3 {
		usage(fs)
		return warn(3, "copy mode needs: <source> <destination> <reference>")
	}

	src, dst, ref := pos[0], pos[1], refOrEmpty(pos[2])
	if _, err := core.RunCopy(src, dst, ref, opt); err != nil {
		if core.IsAlreadyExists(err) || errors.Is(err, iofs.ErrNotExist) {
			return warn(3, "%s", err)
		}
		return warn(1, "%s", err)
	}
	return 0
}

// refOrEmpty treats a missing or inaccessible reference tree as "no
// reference": every source entry is then materialized, nothing linked.
func refOrEmpty(ref string) string {
	if _, err := os.Stat(ref); err != nil {
		return ""
	}
	return ref
}

func parseFailMask(s string) (core.FailClass, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return core.FailClass(n), nil
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(`%s - deduplicating tree replicator

Usage:
  %s [options] <source> <destination> <reference>
  %s [options] -static <directory> [reference]

`, z, z, z)
	fs.PrintDefaults()
}

func warn(code int, format string, args ...any) int {
	fmt.Fprintf(os.Stderr, "%s: %s\n", z, fmt.Sprintf(format, args...))
	return code
}
