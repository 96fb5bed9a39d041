package config

import (
	"fmt"
	"io"
	"os"
)

// UsageExitCode matches the status the flag package uses for bad flags.
const UsageExitCode = 2

// Replaced in tests.
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Exitf reports a configuration error for command on stderr, points at
// -help and exits with UsageExitCode.
func Exitf(command, format string, args ...any) {
	fmt.Fprintf(stderr, "%s: %s\n", command, fmt.Sprintf(format, args...))
	fmt.Fprintf(stderr, "run '%s -help' for usage\n", command)
	exit(UsageExitCode)
}
