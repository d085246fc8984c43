// Package fatal turns a build error into the process's final report and
// exit code, matching the original tool's contract (spec §6): print the
// failure and return -1, or print nothing and return 0.
//
// Wrapped with github.com/pkg/errors throughout the pipeline (see
// classfile.FindAll's errors.Wrapf calls); this package is where those
// wrapped chains finally get unwound and reported.
package fatal

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ExitFailure is returned by main on any build error, matching the
// original bootimage-builder's return -1 on exception.
const ExitFailure = -1

// ExitSuccess is returned by main on a completed build.
const ExitSuccess = 0

// Report prints err to stderr and returns the process exit code to use.
// With verbose set it also prints the deepest available stack trace
// (github.com/pkg/errors captures one at the first Wrap/WithStack call in
// the chain); otherwise it prints only the wrapped message chain.
func Report(err error, verbose bool) int {
	if err == nil {
		return ExitSuccess
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "bootimage-builder: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "bootimage-builder: %v\n", err)
	}
	return ExitFailure
}

// Wrap annotates err with msg, or returns nil if err is nil — a thin
// convenience over errors.Wrap for call sites that always have an err in
// hand and want to skip the nil check.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
