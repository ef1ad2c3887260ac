// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExitCode is the process status for fatal startup and run errors.
const ExitCode = 1

// Exitf prints "<program>: <message>" to stderr and exits with ExitCode.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, os.Exit, filepath.Base(os.Args[0]), format, args...)
}

func exitf(w io.Writer, exit func(int), program, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s: %s\n", program, fmt.Sprintf(format, args...))
	exit(ExitCode)
}
